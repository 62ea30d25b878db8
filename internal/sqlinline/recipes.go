package sqlinline

const QSelectIngredientNamesByIDs = `--sql 078323d2-5249-460c-8962-d8fd9c107fc5
select id, name
from ingredients
where id = any($1);
`

const QSelectRecipeIngredientRowsForHash = `--sql 9d054bc2-2a92-4d8a-968c-cf43bc8ecd2b
select ri.ingredient_id, ri.group_id, ri.unit_id, ri.amount::text, coalesce(ri.note, ''),
       i.name, u.short_name, coalesce(g.name, '')
from recipe_ingredients ri
join ingredients i on i.id = ri.ingredient_id
join units u on u.id = ri.unit_id
left join ingredient_groups g on g.id = ri.group_id
where ri.recipe_id = $1
order by ri.ingredient_id, ri.group_id, ri.unit_id, ri.amount, ri.id;
`

const QSelectRecipeIngredientRowsForPrompt = `--sql 98cbdf69-193d-4900-b634-ccf8b625b9ab
select ri.ingredient_id, ri.group_id, ri.unit_id, ri.amount::text, coalesce(ri.note, ''),
       i.name, u.short_name, coalesce(g.name, '')
from recipe_ingredients ri
join ingredients i on i.id = ri.ingredient_id
join units u on u.id = ri.unit_id
left join ingredient_groups g on g.id = ri.group_id
where ri.recipe_id = $1
order by ri.group_id nulls first, ri.id;
`

const QSelectIngredientNamesForRecipe = `--sql 4a32abfa-cfb9-479c-a1fa-f6b0df974cd9
select i.name
from recipe_ingredients ri
join ingredients i on i.id = ri.ingredient_id
where ri.recipe_id = $1
order by ri.id;
`

const QInsertRecipe = `--sql d7deccb9-0df4-4b34-adba-a15aeae43eb7
insert into recipes (title, slug, description, note, is_generated, preparation_time, cooking_time, servings, difficulty)
values ($1, $2, $3, $4, true, $5, $6, $7, $8)
returning id;
`

const QInsertRecipeStep = `--sql 72a25050-9a4e-4270-a193-88c6c41c3a43
insert into recipe_steps (recipe_id, step_order, title, description, duration)
values ($1, $2, $3, $4, $5);
`

const QSelectRecipeTaxonomies = `--sql e10c1351-bcf0-4a3b-acb7-6c5371297146
select
    coalesce((select array_agg(c.name order by c.name)
              from recipe_cuisines rc join cuisines c on c.id = rc.cuisine_id
              where rc.recipe_id = r.id), '{}'),
    coalesce((select array_agg(m.name order by m.name)
              from recipe_meal_types rm join meal_types m on m.id = rm.meal_type_id
              where rm.recipe_id = r.id), '{}'),
    coalesce((select array_agg(c.name order by c.name)
              from recipe_categories rc join categories c on c.id = rc.category_id
              where rc.recipe_id = r.id), '{}'),
    coalesce((select array_agg(t.name order by t.name)
              from recipe_tags rt join tags t on t.id = rt.tag_id
              where rt.recipe_id = r.id), '{}'),
    coalesce((select array_agg(cm.name order by cm.name)
              from recipe_cooking_methods rcm join cooking_methods cm on cm.id = rcm.cooking_method_id
              where rcm.recipe_id = r.id), '{}')
from recipes r
where r.id = $1;
`

const QListMetaCandidates = `--sql 6ef3c156-1d27-4f40-86da-542db0f852bd
select id, title, coalesce(description, ''), difficulty, preparation_time, cooking_time, servings,
       coalesce(meta_title, ''), coalesce(meta_description, '')
from recipes
where ($1 or published_at is not null)
  and (coalesce(meta_title, '') = '' or coalesce(meta_description, '') = '')
order by id
limit $2;
`

const QUpdateRecipeMeta = `--sql 23c1e522-8682-4143-bf9e-f19dd4b3241d
update recipes
set meta_title       = case when $2 then $3 else meta_title end,
    meta_description = case when $4 then $5 else meta_description end,
    updated_at       = now()
where id = $1;
`

const QSelectRecipeSearchDoc = `--sql 8dde0ee1-88e1-4eff-83a0-f898701a1249
select r.id, r.title, r.slug, coalesce(r.description, ''), coalesce(r.meta_title, ''),
       coalesce(r.meta_description, ''), r.difficulty, r.published_at,
       coalesce((select array_agg(trim(concat(i.name, ' ', coalesce(ri.note, ''), ' ', coalesce(g.name, ''))) order by ri.id)
                 from recipe_ingredients ri
                 join ingredients i on i.id = ri.ingredient_id
                 left join ingredient_groups g on g.id = ri.group_id
                 where ri.recipe_id = r.id), '{}')
from recipes r
where r.id = $1;
`
