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

package types

// PageRequest describes a page of results. PageNumber is 1-based and a
// PageSize of zero or less disables pagination.
type PageRequest struct {
	PageSize   int
	PageNumber int
}

// NewPageRequest constructs a PageRequest.
func NewPageRequest(pageSize int, pageNumber int) *PageRequest {
	return &PageRequest{PageSize: pageSize, PageNumber: pageNumber}
}

// Unpaged returns a request that materializes the whole sequence.
func Unpaged() *PageRequest {
	return &PageRequest{}
}

// Enabled reports whether the request bounds the result.
func (p *PageRequest) Enabled() bool {
	return p != nil && p.PageSize > 0
}

// GetOffset returns the number of rows skipped before the page.
func (p *PageRequest) GetOffset() int {
	if !p.Enabled() {
		return 0
	}
	return (p.PageNumber - 1) * p.PageSize
}

// Pagination holds paged result items along with pagination metadata.
type Pagination[T any] struct {
	Page     int
	PageSize int
	Total    int
	Items    []*T
}

// NewDefaultPagination constructs an empty pagination container.
func NewDefaultPagination[T any](page int, pageSize int) *Pagination[T] {
	return &Pagination[T]{page, pageSize, 0, make([]*T, 0)}
}

// TotalPages returns the number of pages for Total, or 1 when unpaged.
func (p *Pagination[T]) TotalPages() int {
	if p.PageSize <= 0 {
		return 1
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}
