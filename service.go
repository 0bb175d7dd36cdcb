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


package quarry

import (
	"context"

	"github.com/tomoncle/quarry/query"
	"github.com/tomoncle/quarry/repository"
	"github.com/tomoncle/quarry/request"
	"github.com/tomoncle/quarry/types"
)

type Service[T any, ID comparable] interface {
	// List returns the page of entities selected by the filters, sort keys,
	// includes, sparse fieldset and page of params. A nil params lists
	// everything.
	List(ctx context.Context, params *types.QueryParams) (*types.Pagination[T], error)

	// Get returns a single entity by its identifier with the named
	// relationships loaded, or nil when it does not exist.
	Get(ctx context.Context, id ID, includes ...string) (*T, error)

	// Create inserts a new entity.
	Create(ctx context.Context, entity *T) (*T, error)

	// Update applies the attributes and relationships recorded in the
	// request context. It returns nil when the entity does not exist.
	Update(ctx context.Context, id ID, patch *T) (*T, error)

	// Delete removes an entity and reports whether it existed.
	Delete(ctx context.Context, id ID) (bool, error)

	// UpdateRelationships replaces the related entities of the entity with
	// the given identifier. It reports false when the entity does not exist.
	UpdateRelationships(ctx context.Context, id ID, relationship string, relatedIDs []interface{}) (bool, error)

	// Repository returns the repository backing the service.
	Repository() repository.Repository[T, ID]

	// RunInTx runs fn with a service bound to a single transaction.
	RunInTx(ctx context.Context, fn func(ctx context.Context, svc Service[T, ID]) error) error
}

type baseServiceImpl[T any, ID comparable] struct {
	repo repository.Repository[T, ID]
}

// NewService returns the default Service implementation for a resource
// registered on e.
func NewService[T any, ID comparable](e *Engine) (Service[T, ID], error) {
	repo, err := repository.NewRepository[T, ID](e.db, e.graph, e.processors)
	if err != nil {
		return nil, err
	}
	return &baseServiceImpl[T, ID]{repo: repo}, nil
}

func (s *baseServiceImpl[T, ID]) Repository() repository.Repository[T, ID] {
	return s.repo
}

func (s *baseServiceImpl[T, ID]) List(ctx context.Context, params *types.QueryParams) (*types.Pagination[T], error) {
	if params == nil {
		params = &types.QueryParams{}
	}
	q, err := s.repo.Get(withFields(ctx, params.Fields))
	if err != nil {
		return nil, err
	}
	for _, f := range params.Filters {
		if q, err = s.repo.Filter(q, f); err != nil {
			return nil, err
		}
	}
	if q, err = s.repo.Sort(q, params.Sorts); err != nil {
		return nil, err
	}
	for _, name := range params.Includes {
		if q, err = s.repo.Include(q, name); err != nil {
			return nil, err
		}
	}
	return s.repo.PageWithTotal(ctx, q, params.Page)
}

func (s *baseServiceImpl[T, ID]) Get(ctx context.Context, id ID, includes ...string) (*T, error) {
	if len(includes) == 0 {
		return s.repo.GetByID(ctx, id)
	}
	q, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	for _, name := range includes {
		if q, err = s.repo.Include(q, name); err != nil {
			return nil, err
		}
	}
	if q, err = s.repo.Filter(q, types.NewFilter("id", types.OpEqual, id)); err != nil {
		return nil, err
	}
	return q.First(ctx)
}

func (s *baseServiceImpl[T, ID]) Create(ctx context.Context, entity *T) (*T, error) {
	return s.repo.Create(ctx, entity)
}

func (s *baseServiceImpl[T, ID]) Update(ctx context.Context, id ID, patch *T) (*T, error) {
	return s.repo.Update(ctx, id, patch)
}

func (s *baseServiceImpl[T, ID]) Delete(ctx context.Context, id ID) (bool, error) {
	return s.repo.Delete(ctx, id)
}

func (s *baseServiceImpl[T, ID]) UpdateRelationships(ctx context.Context, id ID, relationship string, relatedIDs []interface{}) (bool, error) {
	found := false
	err := s.repo.RunInTx(ctx, func(ctx context.Context, repo repository.Repository[T, ID]) error {
		q, err := query.Filter(query.New[T](repo.DB(), repo.Resource()), types.NewFilter("id", types.OpEqual, id))
		if err != nil {
			return err
		}
		parent, err := q.First(ctx)
		if err != nil || parent == nil {
			return err
		}
		found = true
		return repo.UpdateRelationships(ctx, parent, relationship, relatedIDs)
	})
	return found, err
}

func (s *baseServiceImpl[T, ID]) RunInTx(ctx context.Context, fn func(ctx context.Context, svc Service[T, ID]) error) error {
	return s.repo.RunInTx(ctx, func(ctx context.Context, repo repository.Repository[T, ID]) error {
		return fn(ctx, &baseServiceImpl[T, ID]{repo: repo})
	})
}

// withFields returns ctx with the sparse fieldset replaced by fields. The
// caller's request context is not modified.
func withFields(ctx context.Context, fields []string) context.Context {
	if len(fields) == 0 {
		return ctx
	}
	rc := *request.FromContext(ctx)
	rc.Fields = fields
	return request.WithContext(ctx, &rc)
}
