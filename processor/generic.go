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

package processor

import (
	"context"
	"fmt"
	"reflect"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/quarry/database"
	qerrors "github.com/tomoncle/quarry/errors"
	"github.com/tomoncle/quarry/resource"
)

// GenericProcessor updates relationships whose target resource is T.
type GenericProcessor[T any] struct{}

var _ RelationshipProcessor = (*GenericProcessor[struct{}])(nil)

// NewGenericProcessor returns the processor for relationships targeting T.
func NewGenericProcessor[T any]() *GenericProcessor[T] {
	return &GenericProcessor[T]{}
}

func (p *GenericProcessor[T]) UpdateRelationships(ctx context.Context, db bun.IDB, parent interface{}, rel *resource.Relationship, relatedIDs []interface{}) error {
	target := rel.Target
	if target == nil || target.Type != reflect.TypeOf((*T)(nil)).Elem() {
		return qerrors.NewConfigurationError("processor", "%T cannot update %s", p, rel)
	}
	if !singleColumn(rel.Relation) {
		return qerrors.NewConfigurationError("processor", "%s uses a composite key", rel)
	}
	pv, err := rel.Source.Indirect(parent)
	if err != nil {
		return err
	}
	ids, err := p.coerceIDs(target, rel, relatedIDs)
	if err != nil {
		return err
	}
	if err := p.checkExist(ctx, db, target, rel, ids); err != nil {
		return err
	}

	switch rel.Kind {
	case resource.BelongsTo:
		err = p.setForeignKey(ctx, db, parent, pv, rel, ids)
	case resource.HasOne, resource.HasMany:
		err = p.replaceChildren(ctx, db, pv, rel, ids)
	case resource.ManyToMany:
		err = p.replaceLinks(ctx, db, pv, rel, ids)
	default:
		err = qerrors.NewConfigurationError("processor", "unsupported relationship %s", rel)
	}
	if err != nil {
		return err
	}
	database.GetLogger().Debug("relationship updated", "relationship", rel.String(), "ids", len(ids))
	return nil
}

func (p *GenericProcessor[T]) coerceIDs(target *resource.Resource, rel *resource.Relationship, relatedIDs []interface{}) ([]interface{}, error) {
	seen := make(map[interface{}]struct{}, len(relatedIDs))
	ids := make([]interface{}, 0, len(relatedIDs))
	for _, raw := range relatedIDs {
		id, err := resource.Coerce(target.ID().Field, raw)
		if err != nil || id == nil {
			return nil, invalidData(rel, fmt.Sprintf("bad identifier %v", raw))
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if !rel.Kind.ToMany() && len(ids) > 1 {
		return nil, invalidData(rel, fmt.Sprintf("to-one relationship given %d identifiers", len(ids)))
	}
	return ids, nil
}

func (p *GenericProcessor[T]) checkExist(ctx context.Context, db bun.IDB, target *resource.Resource, rel *resource.Relationship, ids []interface{}) error {
	if len(ids) == 0 {
		return nil
	}
	n, err := db.NewSelect().
		Model((*T)(nil)).
		Where("? IN (?)", bun.Ident(target.Alias()+"."+target.ID().Column()), bun.In(ids)).
		Count(ctx)
	if err != nil {
		return err
	}
	if n != len(ids) {
		return invalidData(rel, fmt.Sprintf("%d of %d %s not found", len(ids)-n, len(ids), target.Name))
	}
	return nil
}

// setForeignKey points the parent's foreign key at the single related id, or
// clears it when ids is empty.
func (p *GenericProcessor[T]) setForeignKey(ctx context.Context, db bun.IDB, parent interface{}, pv reflect.Value, rel *resource.Relationship, ids []interface{}) error {
	fk := rel.Relation.BasePKs[0]
	var value interface{}
	if len(ids) == 1 {
		value = ids[0]
	}
	if err := resource.SetField(fk, pv, value); err != nil {
		return invalidData(rel, err.Error())
	}
	relField := rel.Relation.Field.Value(pv)
	relField.Set(reflect.Zero(relField.Type()))

	_, err := db.NewUpdate().Model(parent).Column(fk.Name).WherePK().Exec(ctx)
	return err
}

// replaceChildren detaches the target rows that point at the parent and are
// not listed, then attaches the listed ones.
func (p *GenericProcessor[T]) replaceChildren(ctx context.Context, db bun.IDB, pv reflect.Value, rel *resource.Relationship, ids []interface{}) error {
	parentKey := rel.Relation.BasePKs[0].Value(pv).Interface()
	fk := bun.Ident(rel.Relation.JoinPKs[0].Name)
	pk := bun.Ident(rel.Target.ID().Column())

	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		detach := tx.NewUpdate().
			Model((*T)(nil)).
			Set("? = NULL", fk).
			Where("? = ?", fk, parentKey)
		if len(ids) > 0 {
			detach = detach.Where("? NOT IN (?)", pk, bun.In(ids))
		}
		if _, err := detach.Exec(ctx); err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		_, err := tx.NewUpdate().
			Model((*T)(nil)).
			Set("? = ?", fk, parentKey).
			Where("? IN (?)", pk, bun.In(ids)).
			Exec(ctx)
		return err
	})
}

// replaceLinks rewrites the junction rows of the parent.
func (p *GenericProcessor[T]) replaceLinks(ctx context.Context, db bun.IDB, pv reflect.Value, rel *resource.Relationship, ids []interface{}) error {
	r := rel.Relation
	parentKey := r.BasePKs[0].Value(pv).Interface()
	baseFK, joinFK := r.M2MBasePKs[0], r.M2MJoinPKs[0]

	rows := reflect.New(reflect.SliceOf(reflect.PtrTo(r.M2MTable.Type)))
	for _, id := range ids {
		row := reflect.New(r.M2MTable.Type)
		if err := resource.SetField(baseFK, row.Elem(), parentKey); err != nil {
			return invalidData(rel, err.Error())
		}
		if err := resource.SetField(joinFK, row.Elem(), id); err != nil {
			return invalidData(rel, err.Error())
		}
		rows.Elem().Set(reflect.Append(rows.Elem(), row))
	}

	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model(reflect.New(r.M2MTable.Type).Interface()).
			Where("? = ?", bun.Ident(baseFK.Name), parentKey).
			Exec(ctx)
		if err != nil || len(ids) == 0 {
			return err
		}
		_, err = tx.NewInsert().Model(rows.Interface()).Exec(ctx)
		return err
	})
}

func singleColumn(r *schema.Relation) bool {
	if len(r.BasePKs) != 1 || len(r.JoinPKs) != 1 {
		return false
	}
	if r.Type == schema.ManyToManyRelation {
		return len(r.M2MBasePKs) == 1 && len(r.M2MJoinPKs) == 1
	}
	return true
}

func invalidData(rel *resource.Relationship, msg string) error {
	return &qerrors.InvalidRelationshipDataError{Resource: rel.Source.Name, Relationship: rel.PublicName, Message: msg}
}
