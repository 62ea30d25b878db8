package sqlinline

const QSelectNextQueuedImageJob = `--sql 67eed6ba-0e98-46de-8204-c55f85cc5c7c
select j.id, j.recipe_id, coalesce(j.prompt, ''), r.title, r.slug, coalesce(r.image_path, '')
from recipe_image_jobs j
join recipes r on r.id = j.recipe_id
where j.status = 'queued'
order by j.created_at asc
for update of j skip locked
limit 1;
`

const QMarkImageJobRunning = `--sql c007a12a-397b-4b2f-8792-ea830d323dba
update recipe_image_jobs
set status = 'running', started_at = now(), prompt = $2, error = '', updated_at = now()
where id = $1;
`

const QSelectImageJobForUpdate = `--sql 256016a6-3019-4284-a1e3-1e5a5e3d8944
select j.status, j.recipe_id, r.slug, coalesce(r.image_path, '')
from recipe_image_jobs j
join recipes r on r.id = j.recipe_id
where j.id = $1
for update of j;
`

const QMarkImageJobSucceeded = `--sql e3868414-5dce-40b7-b1a5-ac7511af2e86
update recipe_image_jobs
set status = 'succeeded', error = '', finished_at = now(), updated_at = now()
where id = $1;
`

const QMarkImageJobFailed = `--sql ebe3fc48-76cb-4743-965e-80a6347f9e2e
update recipe_image_jobs
set status = 'failed', error = $2, finished_at = now(), updated_at = now()
where id = $1;
`

const QUpdateRecipeImagePath = `--sql b190ade0-3ac8-4440-bab7-2fe15a8b6d25
update recipes
set image_path = $2, updated_at = now()
where id = $1;
`

const QListImageCandidates = `--sql 706a1064-3cbf-4a46-b085-93cf1642513b
select r.id, r.title
from recipes r
where coalesce(r.image_path, '') = ''
  and ($1 or r.is_generated)
  and not exists (
      select 1 from recipe_image_jobs j
      where j.recipe_id = r.id and j.status in ('queued', 'running')
  )
order by r.id
limit $2;
`

const QInsertImageJob = `--sql 8a4bda91-5ac5-4685-b766-18f90b5bbacc
insert into recipe_image_jobs (recipe_id, status, prompt)
values ($1, 'queued', $2)
returning id;
`
