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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "github.com/tomoncle/quarry/errors"
	"github.com/tomoncle/quarry/internal/testmodels"
	"github.com/tomoncle/quarry/types"
)

func seedPeople(t *testing.T, f *testmodels.Fixture, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		f.Insert(t, &testmodels.Person{Name: fmt.Sprintf("p%02d", i), Age: i})
	}
}

func TestPage(t *testing.T) {
	f := testmodels.Open(t)
	seedPeople(t, f, 25)
	ctx := context.Background()

	q, err := Sort(people(t, f), []types.SortSpec{types.Asc("age")})
	require.NoError(t, err)

	tests := []struct {
		name  string
		page  *types.PageRequest
		count int
		first string
	}{
		{"second page", types.NewPageRequest(10, 2), 10, "p11"},
		{"last page is short", types.NewPageRequest(10, 3), 5, "p21"},
		{"past the end", types.NewPageRequest(10, 4), 0, ""},
		{"page size zero is unpaged", types.NewPageRequest(0, 3), 25, "p01"},
		{"unpaged", types.Unpaged(), 25, "p01"},
		{"nil is unpaged", nil, 25, "p01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := Page(ctx, q, tt.page)
			require.NoError(t, err)
			require.NotNil(t, list)
			assert.Len(t, list, tt.count)
			if tt.first != "" {
				assert.Equal(t, tt.first, list[0].Name)
			}
		})
	}
}

func TestPageSizeOne(t *testing.T) {
	f := testmodels.Open(t)
	seedPeople(t, f, 3)

	q, err := Sort(people(t, f), []types.SortSpec{types.Desc("age")})
	require.NoError(t, err)
	list, err := Page(context.Background(), q, types.NewPageRequest(1, 1))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "p03", list[0].Name)
}

func TestPageRejectsNumberBelowOne(t *testing.T) {
	f := testmodels.Open(t)
	q := people(t, f)

	for _, number := range []int{0, -1} {
		_, err := Page(context.Background(), q, types.NewPageRequest(10, number))
		var target *qerrors.InvalidPageRequestError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, number, target.PageNumber)
		assert.Equal(t, 10, target.PageSize)
	}
}

func TestPageWithTotal(t *testing.T) {
	f := testmodels.Open(t)
	seedPeople(t, f, 25)

	q, err := Sort(people(t, f), []types.SortSpec{types.Asc("age")})
	require.NoError(t, err)
	p, err := PageWithTotal(context.Background(), q, types.NewPageRequest(10, 3))
	require.NoError(t, err)
	assert.Equal(t, 25, p.Total)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 10, p.PageSize)
	assert.Equal(t, 3, p.TotalPages())
	assert.Len(t, p.Items, 5)

	q, err = Filter(q, types.NewFilter("age", types.OpGreaterThan, 20))
	require.NoError(t, err)
	p, err = PageWithTotal(context.Background(), q, types.Unpaged())
	require.NoError(t, err)
	assert.Equal(t, 5, p.Total)
	assert.Len(t, p.Items, 5)
	assert.Equal(t, 1, p.TotalPages())
}
