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

// Common illegal/default values used by enums.
const (
	IllegalValue = -1
	IllegalName  = "unknown"
	IllegalDesc  = "unknown"
)

// BaseEnum represents a basic enum contract used by domain types.
type BaseEnum interface {
	IsValid() bool
	Number() int
	String() string
	Desc() string
	Name() string
}

// FilterOperator is the comparison applied by a filter specification.
type FilterOperator int

const (
	OpEqual FilterOperator = iota
	// OpNotEqual also matches rows where a nullable attribute is NULL.
	OpNotEqual
	OpLessThan
	OpGreaterThan
	OpLessOrEqual
	OpGreaterOrEqual
	// OpContains matches text attributes containing the value as a literal
	// substring, ignoring case on every dialect.
	OpContains
	OpIn
)

var _ BaseEnum = OpEqual

var filterOperators = []struct {
	name string
	sql  string
	desc string
}{
	OpEqual:          {"eq", "=", "equal to"},
	OpNotEqual:       {"ne", "<>", "not equal to"},
	OpLessThan:       {"lt", "<", "less than"},
	OpGreaterThan:    {"gt", ">", "greater than"},
	OpLessOrEqual:    {"le", "<=", "less than or equal to"},
	OpGreaterOrEqual: {"ge", ">=", "greater than or equal to"},
	OpContains:       {"like", "LIKE", "contains"},
	OpIn:             {"in", "IN", "one of"},
}

// ParseFilterOperator returns the operator for its query-string name.
func ParseFilterOperator(name string) (FilterOperator, bool) {
	for i, op := range filterOperators {
		if op.name == name {
			return FilterOperator(i), true
		}
	}
	return FilterOperator(IllegalValue), false
}

func (o FilterOperator) IsValid() bool { return o >= OpEqual && int(o) < len(filterOperators) }

func (o FilterOperator) Number() int { return int(o) }

func (o FilterOperator) String() string { return o.Name() }

func (o FilterOperator) Name() string {
	if !o.IsValid() {
		return IllegalName
	}
	return filterOperators[o].name
}

func (o FilterOperator) Desc() string {
	if !o.IsValid() {
		return IllegalDesc
	}
	return filterOperators[o].desc
}

// SQL returns the comparison keyword used in a WHERE clause.
func (o FilterOperator) SQL() string {
	if !o.IsValid() {
		return ""
	}
	return filterOperators[o].sql
}

// SortDirection orders a single sort key.
type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

var _ BaseEnum = Ascending

func (d SortDirection) IsValid() bool { return d == Ascending || d == Descending }

func (d SortDirection) Number() int { return int(d) }

func (d SortDirection) String() string { return d.Name() }

func (d SortDirection) Name() string {
	switch d {
	case Ascending:
		return "ASC"
	case Descending:
		return "DESC"
	default:
		return IllegalName
	}
}

func (d SortDirection) Desc() string {
	switch d {
	case Ascending:
		return "ascending"
	case Descending:
		return "descending"
	default:
		return IllegalDesc
	}
}
