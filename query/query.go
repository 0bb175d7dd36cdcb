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
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/tomoncle/quarry/resource"
)

// Step narrows or shapes a select query.
type Step func(*bun.SelectQuery) *bun.SelectQuery

// Query is a lazily evaluated sequence of T. Composing returns a new value;
// nothing touches the store until a terminal method runs.
type Query[T any] struct {
	db       bun.IDB
	resource *resource.Resource
	steps    []Step
}

// New returns the unfiltered query over all entities of res.
func New[T any](db bun.IDB, res *resource.Resource) Query[T] {
	return Query[T]{db: db, resource: res}
}

// Resource returns the metadata of T.
func (q Query[T]) Resource() *resource.Resource { return q.resource }

// DB returns the handle the query executes on.
func (q Query[T]) DB() bun.IDB { return q.db }

// With returns a copy of q with step appended.
func (q Query[T]) With(step Step) Query[T] {
	steps := make([]Step, len(q.steps), len(q.steps)+1)
	copy(steps, q.steps)
	q.steps = append(steps, step)
	return q
}

// Apply runs the accumulated steps on sq.
func (q Query[T]) Apply(sq *bun.SelectQuery) *bun.SelectQuery {
	for _, step := range q.steps {
		sq = step(sq)
	}
	return sq
}

func (q Query[T]) build(dest interface{}) *bun.SelectQuery {
	return q.Apply(q.db.NewSelect().Model(dest))
}

// List materializes every entity in the sequence.
func (q Query[T]) List(ctx context.Context) ([]*T, error) {
	entities := make([]*T, 0)
	if err := q.build(&entities).Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

// First returns the first entity, or nil when the sequence is empty.
func (q Query[T]) First(ctx context.Context) (*T, error) {
	entity := new(T)
	err := q.build(entity).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// Count returns the number of entities, ignoring any limit and offset.
func (q Query[T]) Count(ctx context.Context) (int, error) {
	return q.build((*T)(nil)).Count(ctx)
}

// ListAndCount materializes the sequence and counts it without limit and
// offset in one call.
func (q Query[T]) ListAndCount(ctx context.Context) ([]*T, int, error) {
	entities := make([]*T, 0)
	total, err := q.build(&entities).ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return entities, total, nil
}

// String renders the SELECT statement, mostly for logs and tests.
func (q Query[T]) String() string {
	return q.build((*T)(nil)).String()
}
