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
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/quarry/database"
	qerrors "github.com/tomoncle/quarry/errors"
	"github.com/tomoncle/quarry/processor"
	"github.com/tomoncle/quarry/query"
	"github.com/tomoncle/quarry/request"
	"github.com/tomoncle/quarry/resource"
	"github.com/tomoncle/quarry/types"
)

var errNilEntity = errors.New("repository: nil entity")

type baseRepositoryImpl[T any, ID comparable] struct {
	db         bun.IDB
	resource   *resource.Resource
	processors processor.Factory
}

// NewRepository returns a generic repository for T backed by db. T must be
// registered in graph; relationship updates are dispatched through
// processors.
func NewRepository[T any, ID comparable](db bun.IDB, graph *resource.Graph, processors processor.Factory) (Repository[T, ID], error) {
	res, err := resource.Of[T](graph)
	if err != nil {
		return nil, err
	}
	return &baseRepositoryImpl[T, ID]{db: db, resource: res, processors: processors}, nil
}

func (r *baseRepositoryImpl[T, ID]) Resource() *resource.Resource { return r.resource }

func (r *baseRepositoryImpl[T, ID]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T, ID]) DB() bun.IDB { return r.db }

func (r *baseRepositoryImpl[T, ID]) WithTx(db bun.IDB) Repository[T, ID] {
	return &baseRepositoryImpl[T, ID]{db: db, resource: r.resource, processors: r.processors}
}

func (r *baseRepositoryImpl[T, ID]) RunInTx(ctx context.Context, fn func(ctx context.Context, repo Repository[T, ID]) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, r.WithTx(tx))
	})
}

func (r *baseRepositoryImpl[T, ID]) Get(ctx context.Context) (query.Query[T], error) {
	q := query.New[T](r.db, r.resource)
	rc := request.FromContext(ctx)
	if len(rc.Fields) == 0 {
		return q, nil
	}
	columns := []string{r.resource.ID().Column()}
	for _, name := range rc.Fields {
		attr, ok := r.resource.Attribute(name)
		if !ok {
			return q, &qerrors.InvalidFieldTargetError{Resource: r.resource.Name, Attribute: name}
		}
		if !attr.IsID {
			columns = append(columns, attr.Column())
		}
	}
	return q.With(func(sq *bun.SelectQuery) *bun.SelectQuery {
		return sq.Column(columns...)
	}), nil
}

func (r *baseRepositoryImpl[T, ID]) byID(id ID) query.Step {
	pk := bun.Ident(r.resource.Alias() + "." + r.resource.ID().Column())
	return func(sq *bun.SelectQuery) *bun.SelectQuery {
		return sq.Where("? = ?", pk, id)
	}
}

func (r *baseRepositoryImpl[T, ID]) GetByID(ctx context.Context, id ID) (*T, error) {
	q, err := r.Get(ctx)
	if err != nil {
		return nil, err
	}
	return q.With(r.byID(id)).First(ctx)
}

func (r *baseRepositoryImpl[T, ID]) GetByIDWithInclude(ctx context.Context, id ID, relationship string) (*T, error) {
	q, err := r.Get(ctx)
	if err != nil {
		return nil, err
	}
	if q, err = query.Include(q, relationship); err != nil {
		return nil, err
	}
	return q.With(r.byID(id)).First(ctx)
}

func (r *baseRepositoryImpl[T, ID]) Create(ctx context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, errNilEntity
	}
	if _, err := r.db.NewInsert().Model(entity).Exec(ctx); err != nil {
		return nil, err
	}
	id, _ := r.resource.IDOf(entity)
	database.GetLogger().Debug("entity created", "resource", r.resource.Name, "id", id)
	return entity, nil
}

// Update loads the stored entity, copies the attributes named by the request
// context from patch, writes only those columns and applies the requested
// relationship updates. The identifier is never copied.
func (r *baseRepositoryImpl[T, ID]) Update(ctx context.Context, id ID, patch *T) (*T, error) {
	if patch == nil {
		return nil, errNilEntity
	}
	current, err := query.New[T](r.db, r.resource).With(r.byID(id)).First(ctx)
	if err != nil || current == nil {
		return nil, err
	}

	rc := request.FromContext(ctx)
	dst, src := reflect.ValueOf(current).Elem(), reflect.ValueOf(patch).Elem()
	var columns []string
	for _, attr := range r.resource.Attributes() {
		if attr.IsID || !rc.Touched(attr.PublicName) {
			continue
		}
		attr.Copy(dst, src)
		columns = append(columns, attr.Column())
	}

	relationships := rc.Relationships()
	for _, name := range relationships {
		rel, ok := r.resource.Relationship(name)
		if !ok {
			return nil, &qerrors.RelationshipNotFoundError{Resource: r.resource.Name, Relationship: name}
		}
		if _, err := r.processors.Processor(rel.TargetType); err != nil {
			return nil, err
		}
	}
	if len(columns) == 0 && len(relationships) == 0 {
		return current, nil
	}

	err = r.RunInTx(ctx, func(ctx context.Context, repo Repository[T, ID]) error {
		if len(columns) > 0 {
			if _, err := repo.DB().NewUpdate().Model(current).Column(columns...).WherePK().Exec(ctx); err != nil {
				return err
			}
		}
		for _, name := range relationships {
			if err := repo.UpdateRelationships(ctx, current, name, rc.RelationshipsToUpdate[name]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	database.GetLogger().Debug("entity updated", "resource", r.resource.Name, "id", id, "columns", strings.Join(columns, ","))
	return current, nil
}

func (r *baseRepositoryImpl[T, ID]) Delete(ctx context.Context, id ID) (bool, error) {
	res, err := r.db.NewDelete().
		Model((*T)(nil)).
		Where("? = ?", bun.Ident(r.resource.ID().Column()), id).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		database.GetLogger().Debug("entity deleted", "resource", r.resource.Name, "id", id)
	}
	return n > 0, nil
}

func (r *baseRepositoryImpl[T, ID]) UpdateRelationships(ctx context.Context, parent *T, relationship string, relatedIDs []interface{}) error {
	if parent == nil {
		return errNilEntity
	}
	rel, ok := r.resource.Relationship(relationship)
	if !ok {
		return &qerrors.RelationshipNotFoundError{Resource: r.resource.Name, Relationship: relationship}
	}
	return processor.Dispatch(ctx, r.processors, r.db, parent, rel, relatedIDs)
}

func (r *baseRepositoryImpl[T, ID]) Filter(q query.Query[T], spec *types.FilterSpec) (query.Query[T], error) {
	return query.Filter(q, spec)
}

func (r *baseRepositoryImpl[T, ID]) Sort(q query.Query[T], specs []types.SortSpec) (query.Query[T], error) {
	return query.Sort(q, specs)
}

func (r *baseRepositoryImpl[T, ID]) Include(q query.Query[T], relationship string) (query.Query[T], error) {
	return query.Include(q, relationship)
}

func (r *baseRepositoryImpl[T, ID]) Page(ctx context.Context, q query.Query[T], page *types.PageRequest) ([]*T, error) {
	return query.Page(ctx, q, page)
}

func (r *baseRepositoryImpl[T, ID]) PageWithTotal(ctx context.Context, q query.Query[T], page *types.PageRequest) (*types.Pagination[T], error) {
	return query.PageWithTotal(ctx, q, page)
}

// Upsert inserts entities, updating the named attributes of rows whose
// primary key already exists.
func (r *baseRepositoryImpl[T, ID]) Upsert(ctx context.Context, attributes []string, entity ...*T) error {
	if len(attributes) == 0 {
		return fmt.Errorf("attributes cannot be empty")
	}
	columns := make([]string, 0, len(attributes))
	for _, name := range attributes {
		attr, ok := r.resource.Attribute(name)
		if !ok {
			return &qerrors.InvalidFieldTargetError{Resource: r.resource.Name, Attribute: name}
		}
		columns = append(columns, attr.Column())
	}
	if len(entity) == 0 {
		return nil
	}
	entities := make([]*T, len(entity))
	copy(entities, entity)

	features := r.db.Dialect().Features()
	switch {
	case features.Has(feature.InsertOnConflict):
		return r.upsertOnConflict(ctx, columns, entities)
	case features.Has(feature.InsertOnDuplicateKey):
		return r.upsertOnDuplicateKey(ctx, columns, entities)
	default:
		return r.upsertFallback(ctx, columns, entities)
	}
}

func (r *baseRepositoryImpl[T, ID]) upsertOnDuplicateKey(ctx context.Context, columns []string, entities []*T) error {
	var assignments []string
	var args []interface{}
	for _, column := range columns {
		assignments = append(assignments, "? = VALUES(?)")
		args = append(args, bun.Ident(column), bun.Ident(column))
	}
	_, err := r.db.NewInsert().
		Model(&entities).
		On("DUPLICATE KEY UPDATE "+strings.Join(assignments, ", "), args...).
		Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T, ID]) upsertOnConflict(ctx context.Context, columns []string, entities []*T) error {
	q := r.db.NewInsert().
		Model(&entities).
		On("CONFLICT (?) DO UPDATE", bun.Ident(r.resource.ID().Column()))
	for _, column := range columns {
		q = q.Set("? = EXCLUDED.?", bun.Ident(column), bun.Ident(column))
	}
	_, err := q.Exec(ctx)
	return err
}

// upsertFallback inserts each entity and, when the insert hits an existing
// key, updates the named columns of the stored row instead.
func (r *baseRepositoryImpl[T, ID]) upsertFallback(ctx context.Context, columns []string, entities []*T) error {
	for _, entity := range entities {
		_, err := r.db.NewInsert().Model(entity).Exec(ctx)
		if err == nil {
			continue
		}
		if _, class := database.IsSqlError(err); class != database.DuplicateKeyErr {
			return err
		}
		res, updateErr := r.db.NewUpdate().Model(entity).Column(columns...).WherePK().Exec(ctx)
		if updateErr != nil {
			return fmt.Errorf("upsert failed: insert error: %v, update error: %w", err, updateErr)
		}
		// the conflict was on a key other than the primary key
		if n, _ := res.RowsAffected(); n == 0 {
			return err
		}
	}
	return nil
}
