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
	"github.com/tomoncle/quarry/types"
)

func TestSortPrecedence(t *testing.T) {
	f := testmodels.Open(t)
	f.Insert(t,
		&testmodels.Person{Name: "B", Age: 30},
		&testmodels.Person{Name: "A", Age: 30},
		&testmodels.Person{Name: "Z", Age: 20},
	)

	q, err := Sort(people(t, f), []types.SortSpec{types.Desc("age"), types.Asc("name")})
	require.NoError(t, err)
	list, err := q.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "Z"}, names(list))
}

func TestSortTieBreaksOnID(t *testing.T) {
	f := testmodels.Open(t)
	f.Insert(t,
		&testmodels.Person{Name: "first", Age: 1},
		&testmodels.Person{Name: "second", Age: 1},
		&testmodels.Person{Name: "third", Age: 1},
	)

	q, err := Sort(people(t, f), []types.SortSpec{types.Asc("age")})
	require.NoError(t, err)
	assert.Contains(t, q.String(), `ORDER BY "p"."age" ASC, "p"."id" ASC`)

	list, err := q.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, names(list))

	q, err = Sort(people(t, f), []types.SortSpec{types.Desc("id")})
	require.NoError(t, err)
	assert.Contains(t, q.String(), `ORDER BY "p"."id" DESC`)
	assert.NotContains(t, q.String(), `"p"."id" ASC`)
}

func TestSortEmptyIsIdentity(t *testing.T) {
	f := testmodels.Open(t)
	q := people(t, f)

	sorted, err := Sort(q, nil)
	require.NoError(t, err)
	assert.Equal(t, q.String(), sorted.String())
	assert.NotContains(t, sorted.String(), "ORDER BY")
}

func TestSortErrors(t *testing.T) {
	f := testmodels.Open(t)
	q := people(t, f)

	_, err := Sort(q, []types.SortSpec{types.Asc("name"), types.Desc("height")})
	var target *qerrors.InvalidSortTargetError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "people", target.Resource)
	assert.Equal(t, "height", target.Attribute)

	_, err = Sort(q, []types.SortSpec{{Attribute: "name", Direction: types.SortDirection(7)}})
	assert.ErrorIs(t, err, qerrors.ErrInvalidSortTarget)

	_, err = Sort(q, []types.SortSpec{types.Asc("articles")})
	assert.ErrorIs(t, err, qerrors.ErrInvalidSortTarget)
}
