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

	"github.com/uptrace/bun"

	qerrors "github.com/tomoncle/quarry/errors"
	"github.com/tomoncle/quarry/types"
)

// Bound limits q to the requested page. An unpaged request returns q
// unchanged; a page number below 1 is rejected.
func Bound[T any](q Query[T], page *types.PageRequest) (Query[T], error) {
	if !page.Enabled() {
		return q, nil
	}
	if page.PageNumber < 1 {
		return q, &qerrors.InvalidPageRequestError{PageSize: page.PageSize, PageNumber: page.PageNumber}
	}
	offset, limit := page.GetOffset(), page.PageSize
	return q.With(func(sq *bun.SelectQuery) *bun.SelectQuery {
		return sq.Offset(offset).Limit(limit)
	}), nil
}

// Page materializes one page of q. With paging disabled every entity is
// returned.
func Page[T any](ctx context.Context, q Query[T], page *types.PageRequest) ([]*T, error) {
	bounded, err := Bound(q, page)
	if err != nil {
		return nil, err
	}
	return bounded.List(ctx)
}

// PageWithTotal materializes one page of q together with the size of the
// whole sequence.
func PageWithTotal[T any](ctx context.Context, q Query[T], page *types.PageRequest) (*types.Pagination[T], error) {
	bounded, err := Bound(q, page)
	if err != nil {
		return nil, err
	}
	if page == nil {
		page = types.Unpaged()
	}
	pagination := types.NewDefaultPagination[T](page.PageNumber, page.PageSize)
	items, total, err := bounded.ListAndCount(ctx)
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	pagination.Items = items
	return pagination, nil
}
