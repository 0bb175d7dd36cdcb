/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "github.com/tomoncle/quarry/errors"
	"github.com/tomoncle/quarry/internal/testmodels"
	"github.com/tomoncle/quarry/resource"
	"github.com/tomoncle/quarry/types"
)

func articles(t *testing.T, f *testmodels.Fixture) Query[testmodels.Article] {
	t.Helper()
	res, err := resource.Of[testmodels.Article](f.Graph)
	require.NoError(t, err)
	return New[testmodels.Article](f.DB, res)
}

func people(t *testing.T, f *testmodels.Fixture) Query[testmodels.Person] {
	t.Helper()
	res, err := resource.Of[testmodels.Person](f.Graph)
	require.NoError(t, err)
	return New[testmodels.Person](f.DB, res)
}

func titles(list []*testmodels.Article) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.Title)
	}
	return out
}

func names(list []*testmodels.Person) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, p.Name)
	}
	return out
}

func TestFilterOwnAttribute(t *testing.T) {
	f := testmodels.Open(t)
	b := f.Seed(t)
	ctx := context.Background()

	tests := []struct {
		name string
		spec *types.FilterSpec
		want []string
	}{
		{"eq", types.NewFilter("title", types.OpEqual, "Intro"), []string{"Intro"}},
		{"ne", types.NewFilter("title", types.OpNotEqual, "Intro"), []string{"Deep dive", "Draft"}},
		{"gt from string", types.NewFilter("views", types.OpGreaterThan, "5"), []string{"Intro", "Deep dive"}},
		{"le", types.NewFilter("views", types.OpLessOrEqual, 10), []string{"Intro", "Draft"}},
		{"like", types.NewFilter("body", types.OpContains, "world"), []string{"Intro"}},
		{"like ignores case", types.NewFilter("body", types.OpContains, "WORLD"), []string{"Intro"}},
		{"in", types.NewFilter("id", types.OpIn, []int64{b.Intro.ID, b.Draft.ID}), []string{"Intro", "Draft"}},
		{"in from string", types.NewFilter("views", types.OpIn, "0,50"), []string{"Deep dive", "Draft"}},
		{"nil", nil, []string{"Intro", "Deep dive", "Draft"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Filter(articles(t, f), tt.spec)
			require.NoError(t, err)
			q, err = Sort(q, []types.SortSpec{types.Asc("id")})
			require.NoError(t, err)
			list, err := q.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(list))
		})
	}
}

func TestFilterNull(t *testing.T) {
	f := testmodels.Open(t)
	f.Seed(t)
	ctx := context.Background()

	q, err := Filter(people(t, f), types.NewFilter("email", types.OpEqual, nil))
	require.NoError(t, err)
	list, err := q.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, names(list))

	q, err = Filter(people(t, f), types.NewFilter("email", types.OpNotEqual, nil))
	require.NoError(t, err)
	n, err := q.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = Filter(people(t, f), types.NewFilter("email", types.OpGreaterThan, nil))
	assert.ErrorIs(t, err, qerrors.ErrInvalidFilter)
}

func TestFilterNotEqualKeepsNull(t *testing.T) {
	f := testmodels.Open(t)
	b := f.Seed(t)
	ctx := context.Background()

	q, err := Filter(people(t, f), types.NewFilter("email", types.OpNotEqual, *b.Alice.Email))
	require.NoError(t, err)
	list, err := q.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bob", "carol"}, names(list))

	q2, err := Filter(articles(t, f), types.NewFilter("author-id", types.OpNotEqual, b.Alice.ID))
	require.NoError(t, err)
	list2, err := q2.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Draft"}, titles(list2))
}

func TestFilterContainsIsLiteral(t *testing.T) {
	f := testmodels.Open(t)
	f.Insert(t,
		&testmodels.Person{Name: "a_c"},
		&testmodels.Person{Name: "abc"},
		&testmodels.Person{Name: "100% sure"},
		&testmodels.Person{Name: "100 maybe"},
		&testmodels.Person{Name: "wow!"},
		&testmodels.Person{Name: "Mixed Case"},
	)
	ctx := context.Background()

	tests := []struct {
		value string
		want  []string
	}{
		{"a_c", []string{"a_c"}},
		{"_", []string{"a_c"}},
		{"100%", []string{"100% sure"}},
		{"%", []string{"100% sure"}},
		{"!", []string{"wow!"}},
		{"100", []string{"100% sure", "100 maybe"}},
		{"mixed case", []string{"Mixed Case"}},
		{"CASE", []string{"Mixed Case"}},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			q, err := Filter(people(t, f), types.NewFilter("name", types.OpContains, tt.value))
			require.NoError(t, err)
			list, err := q.List(ctx)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, names(list))
		})
	}
}

func TestFilterRejectsLossyNumbers(t *testing.T) {
	f := testmodels.Open(t)
	f.Seed(t)

	for _, value := range []interface{}{30.5, 2.7, "30.5", 1e40} {
		_, err := Filter(people(t, f), types.NewFilter("age", types.OpEqual, value))
		assert.ErrorIs(t, err, qerrors.ErrInvalidFilter, "%v", value)
	}
	_, err := Filter(people(t, f), types.NewFilter("age", types.OpIn, []float64{30, 25.5}))
	assert.ErrorIs(t, err, qerrors.ErrInvalidFilter)

	q, err := Filter(people(t, f), types.NewFilter("age", types.OpEqual, 30.0))
	require.NoError(t, err)
	list, err := q.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, names(list))
}

func TestFilterRelationship(t *testing.T) {
	f := testmodels.Open(t)
	f.Seed(t)
	ctx := context.Background()

	t.Run("belongs-to", func(t *testing.T) {
		q, err := Filter(articles(t, f), types.NewRelationshipFilter("author", "name", types.OpEqual, "alice"))
		require.NoError(t, err)
		list, err := q.List(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Intro", "Deep dive"}, titles(list))
	})

	t.Run("has-many", func(t *testing.T) {
		q, err := Filter(articles(t, f), types.NewRelationshipFilter("comments", "body", types.OpEqual, "long"))
		require.NoError(t, err)
		list, err := q.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Deep dive"}, titles(list))
	})

	t.Run("has-many yields each parent once", func(t *testing.T) {
		q, err := Filter(people(t, f), types.NewRelationshipFilter("articles", "views", types.OpGreaterOrEqual, 0))
		require.NoError(t, err)
		list, err := q.List(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"alice", "bob"}, names(list))
	})

	t.Run("many-to-many", func(t *testing.T) {
		q, err := Filter(articles(t, f), types.NewRelationshipFilter("tags", "label", types.OpEqual, "sql"))
		require.NoError(t, err)
		list, err := q.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Intro"}, titles(list))

		q, err = Filter(articles(t, f), types.NewRelationshipFilter("tags", "label", types.OpIn, "go,sql"))
		require.NoError(t, err)
		n, err := q.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("combined with own attribute", func(t *testing.T) {
		q, err := Filter(articles(t, f), types.NewRelationshipFilter("author", "age", types.OpGreaterThan, "20"))
		require.NoError(t, err)
		q, err = Filter(q, types.NewFilter("views", types.OpLessThan, 20))
		require.NoError(t, err)
		list, err := q.List(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Intro", "Draft"}, titles(list))
	})
}

func TestFilterErrors(t *testing.T) {
	f := testmodels.Open(t)
	q := articles(t, f)

	tests := []struct {
		name   string
		spec   *types.FilterSpec
		target error
	}{
		{"unknown attribute", types.NewFilter("nope", types.OpEqual, 1), qerrors.ErrInvalidFilterTarget},
		{"relationship is not an attribute", types.NewFilter("author", types.OpEqual, 1), qerrors.ErrInvalidFilterTarget},
		{"unknown relationship", types.NewRelationshipFilter("editor", "name", types.OpEqual, "x"), qerrors.ErrRelationshipNotFound},
		{"unknown related attribute", types.NewRelationshipFilter("author", "nope", types.OpEqual, "x"), qerrors.ErrInvalidFilterTarget},
		{"bad value", types.NewFilter("views", types.OpEqual, "many"), qerrors.ErrInvalidFilter},
		{"like on number", types.NewFilter("views", types.OpContains, "1"), qerrors.ErrInvalidFilter},
		{"empty in", types.NewFilter("views", types.OpIn, []int{}), qerrors.ErrInvalidFilter},
		{"bad operator", types.NewFilter("views", types.FilterOperator(42), 1), qerrors.ErrInvalidFilter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(q, tt.spec)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.True(t, qerrors.IsClientError(err))
			assert.Equal(t, q.String(), got.String())
		})
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	f := testmodels.Open(t)
	f.Seed(t)
	ctx := context.Background()

	base := articles(t, f)
	narrowed, err := Filter(base, types.NewFilter("title", types.OpEqual, "Intro"))
	require.NoError(t, err)

	n, err := base.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = narrowed.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
