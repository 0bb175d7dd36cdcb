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


package processor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	qerrors "github.com/tomoncle/quarry/errors"
	"github.com/tomoncle/quarry/internal/testmodels"
	"github.com/tomoncle/quarry/processor"
	"github.com/tomoncle/quarry/resource"
)

func relationship[T any](t *testing.T, f *testmodels.Fixture, name string) *resource.Relationship {
	t.Helper()
	res, err := resource.Of[T](f.Graph)
	require.NoError(t, err)
	rel, ok := res.Relationship(name)
	require.True(t, ok, name)
	return rel
}

func tagIDs(t *testing.T, db bun.IDB, articleID int64) []int64 {
	t.Helper()
	var ids []int64
	err := db.NewSelect().
		Model((*testmodels.ArticleTag)(nil)).
		Column("tag_id").
		Where("article_id = ?", articleID).
		Order("tag_id").
		Scan(context.Background(), &ids)
	require.NoError(t, err)
	return ids
}

func commentArticles(t *testing.T, db bun.IDB) map[string]int64 {
	t.Helper()
	var comments []*testmodels.Comment
	require.NoError(t, db.NewSelect().Model(&comments).Scan(context.Background()))
	out := make(map[string]int64, len(comments))
	for _, c := range comments {
		out[c.Body] = c.ArticleID
	}
	return out
}

func TestBelongsTo(t *testing.T) {
	f := testmodels.Open(t)
	b := f.Seed(t)
	ctx := context.Background()
	rel := relationship[testmodels.Article](t, f, "author")

	err := processor.Dispatch(ctx, f.Processors, f.DB, b.Draft, rel, []interface{}{b.Carol.ID})
	require.NoError(t, err)
	assert.Equal(t, b.Carol.ID, b.Draft.AuthorID)

	stored := new(testmodels.Article)
	require.NoError(t, f.DB.NewSelect().Model(stored).Where("id = ?", b.Draft.ID).Scan(ctx))
	assert.Equal(t, b.Carol.ID, stored.AuthorID)
	assert.Equal(t, "Draft", stored.Title)

	// string ids are coerced to the key type
	err = processor.Dispatch(ctx, f.Processors, f.DB, b.Draft, rel, []interface{}{"2"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), b.Draft.AuthorID)

	err = processor.Dispatch(ctx, f.Processors, f.DB, b.Draft, rel, nil)
	require.NoError(t, err)
	require.NoError(t, f.DB.NewSelect().Model(stored).Where("id = ?", b.Draft.ID).Scan(ctx))
	assert.Zero(t, stored.AuthorID)
}

func TestBelongsToRejectsInvalidData(t *testing.T) {
	f := testmodels.Open(t)
	b := f.Seed(t)
	ctx := context.Background()
	rel := relationship[testmodels.Article](t, f, "author")

	for name, ids := range map[string][]interface{}{
		"several ids": {b.Alice.ID, b.Bob.ID},
		"missing":     {int64(999)},
		"bad id":      {"abc"},
		"fraction":    {2.9},
	} {
		err := processor.Dispatch(ctx, f.Processors, f.DB, b.Draft, rel, ids)
		assert.ErrorIs(t, err, qerrors.ErrInvalidRelationship, name)
		assert.True(t, qerrors.IsClientError(err), name)
	}
	assert.Equal(t, b.Bob.ID, b.Draft.AuthorID)

	// the same id twice is one id
	err := processor.Dispatch(ctx, f.Processors, f.DB, b.Draft, rel, []interface{}{b.Alice.ID, b.Alice.ID})
	require.NoError(t, err)
	assert.Equal(t, b.Alice.ID, b.Draft.AuthorID)
}

func TestHasMany(t *testing.T) {
	f := testmodels.Open(t)
	b := f.Seed(t)
	ctx := context.Background()
	rel := relationship[testmodels.Article](t, f, "comments")

	err := processor.Dispatch(ctx, f.Processors, f.DB, b.Intro, rel, []interface{}{b.Second.ID, b.Third.ID})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{
		"nice":   0,
		"thanks": b.Intro.ID,
		"long":   b.Intro.ID,
	}, commentArticles(t, f.DB))

	err = processor.Dispatch(ctx, f.Processors, f.DB, b.Intro, rel, []interface{}{})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"nice": 0, "thanks": 0, "long": 0}, commentArticles(t, f.DB))
}

func TestHasManyMissingRelatedLeavesStoreUntouched(t *testing.T) {
	f := testmodels.Open(t)
	b := f.Seed(t)
	rel := relationship[testmodels.Article](t, f, "comments")

	before := commentArticles(t, f.DB)
	err := processor.Dispatch(context.Background(), f.Processors, f.DB, b.Intro, rel, []interface{}{b.Third.ID, int64(404)})
	assert.ErrorIs(t, err, qerrors.ErrInvalidRelationship)
	assert.Equal(t, before, commentArticles(t, f.DB))
}

func TestManyToMany(t *testing.T) {
	f := testmodels.Open(t)
	b := f.Seed(t)
	ctx := context.Background()
	rel := relationship[testmodels.Article](t, f, "tags")

	err := processor.Dispatch(ctx, f.Processors, f.DB, b.Intro, rel, []interface{}{b.SQL.ID, b.Misc.ID})
	require.NoError(t, err)
	assert.Equal(t, []int64{b.SQL.ID, b.Misc.ID}, tagIDs(t, f.DB, b.Intro.ID))
	assert.Equal(t, []int64{b.Go.ID}, tagIDs(t, f.DB, b.Deep.ID))

	err = processor.Dispatch(ctx, f.Processors, f.DB, b.Intro, rel, nil)
	require.NoError(t, err)
	assert.Empty(t, tagIDs(t, f.DB, b.Intro.ID))
}

func TestManyToManyJSONNumbers(t *testing.T) {
	f := testmodels.Open(t)
	b := f.Seed(t)
	ctx := context.Background()
	rel := relationship[testmodels.Article](t, f, "tags")

	// encoding/json decodes every number as float64
	err := processor.Dispatch(ctx, f.Processors, f.DB, b.Deep, rel, []interface{}{float64(b.SQL.ID) + 0.9})
	assert.ErrorIs(t, err, qerrors.ErrInvalidRelationship)
	assert.Equal(t, []int64{b.Go.ID}, tagIDs(t, f.DB, b.Deep.ID))

	err = processor.Dispatch(ctx, f.Processors, f.DB, b.Deep, rel, []interface{}{float64(b.SQL.ID)})
	require.NoError(t, err)
	assert.Equal(t, []int64{b.SQL.ID}, tagIDs(t, f.DB, b.Deep.ID))
}

func TestDispatchUnregisteredProcessor(t *testing.T) {
	f := testmodels.Open(t)
	b := f.Seed(t)
	rel := relationship[testmodels.Article](t, f, "tags")

	empty := processor.NewRegistry()
	err := processor.Dispatch(context.Background(), empty, f.DB, b.Intro, rel, []interface{}{b.Misc.ID})
	assert.True(t, qerrors.IsConfigurationError(err))
	assert.Contains(t, err.Error(), `"tags"`)
	assert.Equal(t, []int64{b.Go.ID, b.SQL.ID}, tagIDs(t, f.DB, b.Intro.ID))
}

func TestProcessorRejectsForeignTarget(t *testing.T) {
	f := testmodels.Open(t)
	b := f.Seed(t)
	rel := relationship[testmodels.Article](t, f, "tags")

	// a processor specialized for people cannot update a tags relationship
	p := processor.NewGenericProcessor[testmodels.Person]()
	err := p.UpdateRelationships(context.Background(), f.DB, b.Intro, rel, []interface{}{b.Misc.ID})
	assert.True(t, qerrors.IsConfigurationError(err))

	// the parent must be the relationship's source type
	err = processor.Dispatch(context.Background(), f.Processors, f.DB, b.Alice, rel, []interface{}{b.Misc.ID})
	assert.Error(t, err)
	assert.Equal(t, []int64{b.Go.ID, b.SQL.ID}, tagIDs(t, f.DB, b.Intro.ID))
}

func TestUpdateInsideTransactionRollsBack(t *testing.T) {
	f := testmodels.Open(t)
	b := f.Seed(t)
	ctx := context.Background()
	rel := relationship[testmodels.Article](t, f, "tags")

	err := f.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := processor.Dispatch(ctx, f.Processors, tx, b.Intro, rel, []interface{}{b.Misc.ID}); err != nil {
			return err
		}
		assert.Equal(t, []int64{b.Misc.ID}, tagIDs(t, tx, b.Intro.ID))
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []int64{b.Go.ID, b.SQL.ID}, tagIDs(t, f.DB, b.Intro.ID))
}
