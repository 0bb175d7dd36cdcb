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
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	qerrors "github.com/tomoncle/quarry/errors"
	"github.com/tomoncle/quarry/types"
)

// Sort orders q by specs, earlier keys taking precedence. The primary key is
// appended ascending unless a spec already orders by it, so that pages over
// equal keys stay stable. An empty specs returns q unchanged.
func Sort[T any](q Query[T], specs []types.SortSpec) (Query[T], error) {
	if len(specs) == 0 {
		return q, nil
	}
	res := q.resource
	terms := make([]schema.QueryWithArgs, 0, len(specs)+1)
	byID := false
	for _, spec := range specs {
		attr, ok := res.Attribute(spec.Attribute)
		if !ok || !spec.Direction.IsValid() {
			return q, &qerrors.InvalidSortTargetError{Resource: res.Name, Attribute: spec.Attribute}
		}
		byID = byID || attr.IsID
		terms = append(terms, bun.SafeQuery("? "+spec.Direction.Name(), column(res.Alias(), attr.Field)))
	}
	if !byID {
		terms = append(terms, bun.SafeQuery("? ASC", column(res.Alias(), res.ID().Field)))
	}

	return q.With(func(sq *bun.SelectQuery) *bun.SelectQuery {
		for _, term := range terms {
			sq = sq.OrderExpr(term.Query, term.Args...)
		}
		return sq
	}), nil
}
