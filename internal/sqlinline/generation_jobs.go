package sqlinline

const QInsertGenerationJob = `--sql b10c3de2-c1f0-422e-8eb0-e636931f02db
insert into recipe_generation_jobs (user_id, status, inputs, selected_ingredient_ids)
values ($1, 'queued', $2, $3)
returning id, created_at;
`

const QSelectGenerationJobForUser = `--sql f12a248e-860b-4dc5-a6df-90aaff43a8e6
select j.id, j.status, j.created_at, j.started_at, j.finished_at,
       j.result_recipe_id, coalesce(r.slug, ''), coalesce(j.error, '')
from recipe_generation_jobs j
left join recipes r on r.id = j.result_recipe_id
where j.id = $1 and j.user_id = $2;
`

const QClaimNextGenerationJob = `--sql 8fef0f96-1d83-4863-95aa-e97d8223951c
with next_job as (
    select id
    from recipe_generation_jobs
    where status = 'queued'
    order by created_at asc
    for update skip locked
    limit 1
)
update recipe_generation_jobs
set status = 'running', started_at = now(), error = '', updated_at = now()
where id in (select id from next_job)
returning id, user_id, inputs;
`

const QMarkGenerationJobFailed = `--sql 9c7f997d-225c-4665-b177-245505917883
update recipe_generation_jobs
set status = 'failed', error = $2, finished_at = now(), updated_at = now()
where id = $1 and status = 'running';
`

const QMarkGenerationJobSucceeded = `--sql 46a446df-80b9-4172-b098-d9bfeee373e4
update recipe_generation_jobs
set status = 'succeeded', result_recipe_id = $2, token_usage = $3,
    error = '', finished_at = now(), updated_at = now()
where id = $1 and status = 'running';
`
