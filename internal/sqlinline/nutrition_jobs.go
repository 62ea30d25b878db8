package sqlinline

const QSelectNextQueuedNutritionJob = `--sql 20a814dc-83be-4ffc-9162-86311c513446
select j.id, j.recipe_id, j.input_hash, r.servings
from recipe_nutrition_jobs j
join recipes r on r.id = j.recipe_id
where j.status = 'queued'
order by j.created_at asc
for update of j skip locked
limit 1;
`

const QMarkNutritionJobRunning = `--sql bfb2cc82-241f-4c0b-b445-98c4c419a56b
update recipe_nutrition_jobs
set status = 'running', started_at = now(), error = '', updated_at = now()
where id = $1;
`

const QSelectNutritionJobForUpdate = `--sql a85cee07-24cb-4290-98d9-97837eda77ef
select j.status, j.recipe_id, j.input_hash, coalesce(j.openai_batch_id, ''), r.servings
from recipe_nutrition_jobs j
join recipes r on r.id = j.recipe_id
where j.id = $1
for update of j;
`

const QMarkNutritionJobSucceeded = `--sql e58cc69a-48cc-48f1-ad61-e921b2f7821a
update recipe_nutrition_jobs
set status = 'succeeded', result = $2, error = '', finished_at = now(), updated_at = now()
where id = $1;
`

const QMarkNutritionJobFailed = `--sql 869133cb-0d9a-46e8-b3e9-b040c5d6514d
update recipe_nutrition_jobs
set status = 'failed', error = $2, finished_at = now(), updated_at = now()
where id = $1;
`

const QUpdateRecipeNutrition = `--sql b005d401-9338-4017-8985-bdc815260144
update recipes
set nutrition = $2, nutrition_updated_at = now(), nutrition_input_hash = $3,
    nutrition_dirty = false, updated_at = now()
where id = $1;
`

const QMarkRecipeNutritionDirty = `--sql 1e26b788-28fb-45c0-af5b-0668483cf49e
update recipes
set nutrition_dirty = true, updated_at = now()
where id = $1;
`

const QListQueuedNutritionJobs = `--sql 2e23f1af-120d-4a86-8676-b6de4ab8779d
select j.id, j.recipe_id, r.servings
from recipe_nutrition_jobs j
join recipes r on r.id = j.recipe_id
where j.status = 'queued'
order by j.created_at asc
limit $1;
`

const QMarkNutritionJobsSubmitted = `--sql 1dda9a77-f77d-486c-b313-32f0e987162b
update recipe_nutrition_jobs
set status = 'submitted', openai_batch_id = $2, openai_batch_submitted_at = $3, updated_at = now()
where id = any($1) and status = 'queued';
`

const QDistinctSubmittedBatchIDs = `--sql db7dda08-33e2-4acb-b325-b716e0133e1e
select distinct openai_batch_id
from recipe_nutrition_jobs
where status = 'submitted' and coalesce(openai_batch_id, '') <> ''
order by openai_batch_id
limit $1;
`

const QSelectSubmittedJobIDsInBatch = `--sql 8b908a37-af14-4f36-abb4-062a0e18c5a9
select id, recipe_id
from recipe_nutrition_jobs
where openai_batch_id = $1 and status = 'submitted'
order by id
for update;
`

const QListNutritionCandidates = `--sql 351b7a27-8613-4126-934b-2f8a7be35fbe
select r.id, r.servings
from recipes r
where ($1 or r.published_at is not null)
  and ($2 or r.nutrition is null or r.nutrition_dirty)
  and not exists (
      select 1 from recipe_nutrition_jobs j
      where j.recipe_id = r.id and j.status in ('queued', 'running', 'submitted')
  )
order by r.id
limit $3;
`

const QInsertNutritionJob = `--sql eca859d5-d089-40c5-98b5-6dada17571d9
insert into recipe_nutrition_jobs (recipe_id, status, input_hash)
values ($1, 'queued', $2)
returning id;
`

const QStampNutritionEnqueued = `--sql 95c938af-aae0-426d-87a5-206987351eac
update recipes
set nutrition_last_enqueued_at = now()
where id = $1;
`
