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
	"fmt"
	"reflect"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	qerrors "github.com/tomoncle/quarry/errors"
	"github.com/tomoncle/quarry/resource"
	"github.com/tomoncle/quarry/types"
)

const (
	relatedAlias  = "related"
	junctionAlias = "junction"
)

// Filter narrows q to the entities matching spec. A nil spec returns q
// unchanged. Targets and values are validated here, before any I/O.
func Filter[T any](q Query[T], spec *types.FilterSpec) (Query[T], error) {
	if spec == nil {
		return q, nil
	}
	res := q.resource

	if spec.Relationship == "" {
		attr, ok := res.Attribute(spec.Attribute)
		if !ok {
			return q, &qerrors.InvalidFilterTargetError{Resource: res.Name, Attribute: spec.Attribute}
		}
		cond, err := comparison(res.Name, attr, column(res.Alias(), attr.Field), spec)
		if err != nil {
			return q, err
		}
		return q.With(func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Where(cond.Query, cond.Args...)
		}), nil
	}

	rel, ok := res.Relationship(spec.Relationship)
	if !ok {
		return q, &qerrors.RelationshipNotFoundError{Resource: res.Name, Relationship: spec.Relationship}
	}
	if rel.Target == nil {
		return q, qerrors.NewConfigurationError("query", "target of %s is not registered", rel)
	}
	attr, ok := rel.Target.Attribute(spec.Attribute)
	if !ok {
		return q, &qerrors.InvalidFilterTargetError{Resource: rel.Target.Name, Attribute: spec.Attribute}
	}
	cond, err := comparison(rel.Target.Name, attr, column(relatedAlias, attr.Field), spec)
	if err != nil {
		return q, err
	}

	db := q.db
	return q.With(func(sq *bun.SelectQuery) *bun.SelectQuery {
		return sq.Where("? IN (?)", columns(res.Alias(), rel.Relation.BasePKs), relatedKeys(db, rel, cond))
	}), nil
}

// relatedKeys selects the base-side keys of the entities related to a target
// row matching cond. The outer query compares its own keys against them, so
// the same shape serves every relationship kind.
func relatedKeys(db bun.IDB, rel *resource.Relationship, cond schema.QueryWithArgs) *bun.SelectQuery {
	r := rel.Relation
	if rel.Kind == resource.ManyToMany {
		sq := db.NewSelect().
			TableExpr("? AS ?", r.M2MTable.SQLName, bun.Ident(junctionAlias)).
			Join("JOIN ? AS ?", r.JoinTable.SQLName, bun.Ident(relatedAlias)).
			ColumnExpr("?", columns(junctionAlias, r.M2MBasePKs)).
			Where(cond.Query, cond.Args...)
		for i, pk := range r.JoinPKs {
			sq = sq.JoinOn("? = ?", column(relatedAlias, pk), column(junctionAlias, r.M2MJoinPKs[i]))
		}
		return sq
	}
	return db.NewSelect().
		TableExpr("? AS ?", r.JoinTable.SQLName, bun.Ident(relatedAlias)).
		ColumnExpr("?", columns(relatedAlias, r.JoinPKs)).
		Where(cond.Query, cond.Args...)
}

func comparison(resourceName string, attr *resource.Attribute, ident schema.QueryAppender, spec *types.FilterSpec) (schema.QueryWithArgs, error) {
	op := spec.Operator
	invalid := func(format string, args ...interface{}) error {
		return &qerrors.InvalidFilterError{
			Resource:  resourceName,
			Attribute: attr.PublicName,
			Operator:  op.Name(),
			Message:   fmt.Sprintf(format, args...),
		}
	}
	if !op.IsValid() {
		return schema.QueryWithArgs{}, invalid("unknown operator")
	}

	switch op {
	case types.OpIn:
		values, err := listValues(attr, spec.Value)
		if err != nil {
			return schema.QueryWithArgs{}, invalid("%v", err)
		}
		if len(values) == 0 {
			return schema.QueryWithArgs{}, invalid("empty value list")
		}
		return bun.SafeQuery("? IN (?)", ident, bun.In(values)), nil
	case types.OpContains:
		if !resource.IsText(attr.Field) {
			return schema.QueryWithArgs{}, invalid("attribute is not text")
		}
		if spec.Value == nil {
			return schema.QueryWithArgs{}, invalid("missing value")
		}
		pattern := "%" + likeEscaper.Replace(fmt.Sprint(spec.Value)) + "%"
		return bun.SafeQuery("LOWER(?) LIKE LOWER(?) ESCAPE '!'", ident, pattern), nil
	}

	if spec.Value == nil {
		switch op {
		case types.OpEqual:
			return bun.SafeQuery("? IS NULL", ident), nil
		case types.OpNotEqual:
			return bun.SafeQuery("? IS NOT NULL", ident), nil
		}
		return schema.QueryWithArgs{}, invalid("null is only comparable with eq and ne")
	}
	value, err := resource.Coerce(attr.Field, spec.Value)
	if err != nil {
		return schema.QueryWithArgs{}, invalid("%v", err)
	}
	if op == types.OpNotEqual && nullable(attr.Field) {
		return bun.SafeQuery("(? <> ? OR ? IS NULL)", ident, value, ident), nil
	}
	return bun.SafeQuery("? "+op.SQL()+" ?", ident, value), nil
}

// likeEscaper makes the LIKE wildcards of a contains value match literally.
// The escape is '!', not a backslash, which MySQL literals would consume.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func nullable(f *schema.Field) bool {
	return f.NullZero || f.IndirectType != f.StructField.Type
}

func listValues(attr *resource.Attribute, raw interface{}) ([]interface{}, error) {
	var items []interface{}
	switch v := raw.(type) {
	case nil:
	case string:
		for _, s := range strings.Split(v, ",") {
			items = append(items, s)
		}
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	default:
		rv := reflect.ValueOf(raw)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			items = append(items, raw)
			break
		}
		for i := 0; i < rv.Len(); i++ {
			items = append(items, rv.Index(i).Interface())
		}
	}

	values := make([]interface{}, 0, len(items))
	for _, item := range items {
		value, err := resource.Coerce(attr.Field, item)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

func column(alias string, f *schema.Field) schema.QueryAppender {
	return bun.Ident(alias + "." + f.Name)
}

// columns renders one qualified column, or a parenthesized tuple for
// composite keys.
func columns(alias string, fields []*schema.Field) schema.QueryAppender {
	if len(fields) == 1 {
		return column(alias, fields[0])
	}
	placeholders := make([]string, len(fields))
	args := make([]interface{}, len(fields))
	for i, f := range fields {
		placeholders[i] = "?"
		args[i] = column(alias, f)
	}
	return bun.SafeQuery("("+strings.Join(placeholders, ", ")+")", args...)
}
