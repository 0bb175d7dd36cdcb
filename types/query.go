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

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	qerrors "github.com/tomoncle/quarry/errors"
)

// FilterSpec describes a single comparison. When Relationship is set the
// Attribute belongs to the relationship's target resource.
type FilterSpec struct {
	Attribute    string
	Relationship string
	Operator     FilterOperator
	Value        interface{}
}

// NewFilter creates a filter on one of the resource's own attributes.
func NewFilter(attribute string, op FilterOperator, value interface{}) *FilterSpec {
	return &FilterSpec{Attribute: attribute, Operator: op, Value: value}
}

// NewRelationshipFilter creates a filter on an attribute of a related resource.
func NewRelationshipFilter(relationship, attribute string, op FilterOperator, value interface{}) *FilterSpec {
	return &FilterSpec{Attribute: attribute, Relationship: relationship, Operator: op, Value: value}
}

func (f *FilterSpec) String() string {
	target := f.Attribute
	if f.Relationship != "" {
		target = f.Relationship + "." + f.Attribute
	}
	return fmt.Sprintf("%s %s %v", target, f.Operator, f.Value)
}

// ParseFilter parses the key and value of a filter[key]=value parameter. The
// key is either "attribute" or "relationship.attribute"; the value may carry
// an operator prefix such as "gt:10" or "like:abc" and defaults to equality.
func ParseFilter(key, raw string) (*FilterSpec, error) {
	spec := &FilterSpec{Attribute: key, Operator: OpEqual, Value: raw}
	if rel, attr, ok := strings.Cut(key, "."); ok {
		if rel == "" || attr == "" || strings.Contains(attr, ".") {
			return nil, &qerrors.InvalidFilterError{Attribute: key, Operator: OpEqual.Name(), Message: "expected attribute or relationship.attribute"}
		}
		spec.Relationship, spec.Attribute = rel, attr
	}
	if spec.Attribute == "" {
		return nil, &qerrors.InvalidFilterError{Attribute: key, Operator: OpEqual.Name(), Message: "empty attribute"}
	}
	if prefix, rest, ok := strings.Cut(raw, ":"); ok {
		if op, known := ParseFilterOperator(prefix); known {
			spec.Operator = op
			spec.Value = rest
		}
	}
	if spec.Operator == OpIn {
		values := strings.Split(spec.Value.(string), ",")
		spec.Value = values
	}
	return spec, nil
}

// SortSpec orders results by one attribute.
type SortSpec struct {
	Attribute string
	Direction SortDirection
}

// Asc returns an ascending sort key.
func Asc(attribute string) SortSpec { return SortSpec{Attribute: attribute, Direction: Ascending} }

// Desc returns a descending sort key.
func Desc(attribute string) SortSpec { return SortSpec{Attribute: attribute, Direction: Descending} }

// ParseSort parses a comma separated sort parameter; a leading '-' selects
// descending order.
func ParseSort(raw string) []SortSpec {
	var specs []SortSpec
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, "-") {
			specs = append(specs, Desc(part[1:]))
		} else {
			specs = append(specs, Asc(strings.TrimPrefix(part, "+")))
		}
	}
	return specs
}

// QueryParams is the parsed form of a resource collection query string.
type QueryParams struct {
	Filters  []*FilterSpec
	Sorts    []SortSpec
	Includes []string
	Fields   []string
	Page     *PageRequest
}

// ParseQuery reads filter[...], sort, include, fields, page[size] and
// page[number] from a request query string. Unknown parameters are ignored.
func ParseQuery(values url.Values) (*QueryParams, error) {
	params := &QueryParams{Page: Unpaged()}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := values.Get(key)
		switch {
		case strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]"):
			for _, raw := range values[key] {
				spec, err := ParseFilter(key[len("filter["):len(key)-1], raw)
				if err != nil {
					return nil, err
				}
				params.Filters = append(params.Filters, spec)
			}
		case key == "sort":
			params.Sorts = ParseSort(value)
		case key == "include":
			params.Includes = splitList(value)
		case key == "fields":
			params.Fields = splitList(value)
		case key == "page[size]":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, &qerrors.InvalidPageRequestError{Reason: fmt.Sprintf("page[size] %q is not an integer", value)}
			}
			params.Page.PageSize = n
		case key == "page[number]":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, &qerrors.InvalidPageRequestError{Reason: fmt.Sprintf("page[number] %q is not an integer", value)}
			}
			params.Page.PageNumber = n
		}
	}
	if params.Page.PageSize > 0 && params.Page.PageNumber == 0 && !values.Has("page[number]") {
		params.Page.PageNumber = 1
	}
	return params, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
