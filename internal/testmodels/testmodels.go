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


// Package testmodels provides bun models and an in-memory SQLite fixture
// shared by the package tests.
package testmodels

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/tomoncle/quarry/database"
	"github.com/tomoncle/quarry/processor"
	"github.com/tomoncle/quarry/resource"
)

type Person struct {
	bun.BaseModel `bun:"table:people,alias:p"`

	ID       int64      `bun:",pk,autoincrement" json:"id"`
	Name     string     `bun:",notnull" json:"name"`
	Age      int        `json:"age"`
	Email    *string    `json:"email"`
	Articles []*Article `bun:"rel:has-many,join:id=author_id" json:"articles"`
}

type Article struct {
	bun.BaseModel `bun:"table:articles,alias:a"`

	ID       int64      `bun:",pk,autoincrement" json:"id"`
	Title    string     `bun:",notnull" json:"title"`
	Body     string     `json:"body"`
	Views    int        `json:"views"`
	AuthorID int64      `bun:",nullzero" json:"author-id"`
	Author   *Person    `bun:"rel:belongs-to,join:author_id=id" json:"author"`
	Comments []*Comment `bun:"rel:has-many,join:id=article_id" json:"comments"`
	Tags     []*Tag     `bun:"m2m:article_tags,join:Article=Tag" json:"tags"`
}

type Comment struct {
	bun.BaseModel `bun:"table:comments,alias:c"`

	ID        int64    `bun:",pk,autoincrement" json:"id"`
	Body      string   `json:"body"`
	ArticleID int64    `bun:",nullzero" json:"article-id"`
	Article   *Article `bun:"rel:belongs-to,join:article_id=id" json:"article"`
}

type Tag struct {
	bun.BaseModel `bun:"table:tags,alias:t"`

	ID    int64  `bun:",pk,autoincrement" json:"id"`
	Label string `bun:",notnull,unique" json:"label"`
}

// ArticleTag is the junction of Article.Tags.
type ArticleTag struct {
	bun.BaseModel `bun:"table:article_tags,alias:at"`

	ArticleID int64    `bun:",pk"`
	Article   *Article `bun:"rel:belongs-to,join:article_id=id"`
	TagID     int64    `bun:",pk"`
	Tag       *Tag     `bun:"rel:belongs-to,join:tag_id=id"`
}

// Models returns a registry holding every model in creation order.
func Models() database.ModelRegistry {
	registry := database.NewModelRegistry()
	registry.Register(database.NewModelAdapter((*Person)(nil), 0))
	registry.Register(database.NewModelAdapter((*Tag)(nil), 0))
	registry.Register(database.NewModelAdapter((*Article)(nil), 1))
	registry.Register(database.NewModelAdapter((*Comment)(nil), 2))
	registry.Register(database.NewModelAdapter((*ArticleTag)(nil), 2))
	return registry
}

// Fixture is an isolated database with the resource graph and relationship
// processors of the models.
type Fixture struct {
	DB         *bun.DB
	Graph      *resource.Graph
	Processors *processor.Registry
}

// Open creates a private in-memory database, creates the tables and
// registers the resources. The database is closed when the test ends.
func Open(t testing.TB) *Fixture {
	t.Helper()
	cfg := database.DefaultConnectionConfig()
	cfg.Type = "sqlite"
	cfg.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	cfg.SlowQueryTime = 0

	sqlDB, db, err := database.Open(cfg, nil)
	require.NoError(t, err)
	// one connection keeps the in-memory database alive and serializes
	// transactions
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrationManager(db, Models(), nil).RunMigrations(context.Background()))

	f := &Fixture{DB: db, Graph: resource.NewGraph(db), Processors: processor.NewRegistry()}
	register[Person](t, f)
	register[Article](t, f)
	register[Comment](t, f)
	register[Tag](t, f)
	require.NoError(t, f.Graph.Validate())
	return f
}

func register[T any](t testing.TB, f *Fixture) {
	res, err := f.Graph.Register((*T)(nil))
	require.NoError(t, err)
	f.Processors.Register(res.Name, processor.NewGenericProcessor[T]())
}

// Insert stores the given models in order and fails the test on error.
func (f *Fixture) Insert(t testing.TB, models ...interface{}) {
	t.Helper()
	for _, m := range models {
		_, err := f.DB.NewInsert().Model(m).Exec(context.Background())
		require.NoError(t, err)
	}
}

// Link attaches tags to an article through the junction table.
func (f *Fixture) Link(t testing.TB, articleID int64, tagIDs ...int64) {
	t.Helper()
	for _, tagID := range tagIDs {
		f.Insert(t, &ArticleTag{ArticleID: articleID, TagID: tagID})
	}
}

// Blog holds the rows inserted by Seed.
type Blog struct {
	Alice, Bob, Carol    *Person
	Intro, Deep, Draft   *Article
	First, Second, Third *Comment
	Go, SQL, Misc        *Tag
}

// Seed inserts a small blog:
//
//	alice (30) wrote intro (tags go and sql) and deep (tag go)
//	bob (25) wrote draft (no tags)
//	carol (40) wrote nothing and has no email
//	intro has comments first and second, deep has third
func (f *Fixture) Seed(t testing.TB) *Blog {
	t.Helper()
	email := func(s string) *string { return &s }
	b := &Blog{
		Alice: &Person{Name: "alice", Age: 30, Email: email("alice@example.com")},
		Bob:   &Person{Name: "bob", Age: 25, Email: email("bob@example.com")},
		Carol: &Person{Name: "carol", Age: 40},
		Go:    &Tag{Label: "go"},
		SQL:   &Tag{Label: "sql"},
		Misc:  &Tag{Label: "misc"},
	}
	f.Insert(t, b.Alice, b.Bob, b.Carol, b.Go, b.SQL, b.Misc)

	b.Intro = &Article{Title: "Intro", Body: "hello world", Views: 10, AuthorID: b.Alice.ID}
	b.Deep = &Article{Title: "Deep dive", Body: "internals", Views: 50, AuthorID: b.Alice.ID}
	b.Draft = &Article{Title: "Draft", Body: "todo", Views: 0, AuthorID: b.Bob.ID}
	f.Insert(t, b.Intro, b.Deep, b.Draft)

	b.First = &Comment{Body: "nice", ArticleID: b.Intro.ID}
	b.Second = &Comment{Body: "thanks", ArticleID: b.Intro.ID}
	b.Third = &Comment{Body: "long", ArticleID: b.Deep.ID}
	f.Insert(t, b.First, b.Second, b.Third)

	f.Link(t, b.Intro.ID, b.Go.ID, b.SQL.ID)
	f.Link(t, b.Deep.ID, b.Go.ID)
	return b
}
