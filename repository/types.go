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

package repository

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/quarry/query"
	"github.com/tomoncle/quarry/resource"
	"github.com/tomoncle/quarry/types"
)

// CrudRepository defines the CRUD operations of a resource. Absence is not an
// error: lookups return nil and Delete returns false.
type CrudRepository[T any, ID comparable] interface {
	Get(ctx context.Context) (query.Query[T], error)

	GetByID(ctx context.Context, id ID) (*T, error)

	GetByIDWithInclude(ctx context.Context, id ID, relationship string) (*T, error)

	Create(ctx context.Context, entity *T) (*T, error)

	Update(ctx context.Context, id ID, patch *T) (*T, error)

	Delete(ctx context.Context, id ID) (bool, error)

	Upsert(ctx context.Context, attributes []string, entity ...*T) error
}

// RelationshipRepository replaces the related entities of a parent.
type RelationshipRepository[T any] interface {
	UpdateRelationships(ctx context.Context, parent *T, relationship string, relatedIDs []interface{}) error
}

// QueryRepository composes queries obtained from Get.
type QueryRepository[T any] interface {
	Filter(q query.Query[T], spec *types.FilterSpec) (query.Query[T], error)
	Sort(q query.Query[T], specs []types.SortSpec) (query.Query[T], error)
	Include(q query.Query[T], relationship string) (query.Query[T], error)
	Page(ctx context.Context, q query.Query[T], page *types.PageRequest) ([]*T, error)
	PageWithTotal(ctx context.Context, q query.Query[T], page *types.PageRequest) (*types.Pagination[T], error)
}

// Repository combines CRUD, relationship and query composition for one
// resource and exposes the underlying handle for advanced use cases.
type Repository[T any, ID comparable] interface {
	CrudRepository[T, ID]
	RelationshipRepository[T]
	QueryRepository[T]
	Resource() *resource.Resource
	Dialect() schema.Dialect
	DB() bun.IDB
	WithTx(db bun.IDB) Repository[T, ID]
	RunInTx(ctx context.Context, fn func(ctx context.Context, repo Repository[T, ID]) error) error
}
