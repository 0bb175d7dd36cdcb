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

package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by the typed errors below through errors.Is.
var (
	ErrInvalidFilterTarget  = errors.New("invalid filter target")
	ErrInvalidSortTarget    = errors.New("invalid sort target")
	ErrInvalidFieldTarget   = errors.New("invalid field target")
	ErrInvalidFilter        = errors.New("invalid filter")
	ErrRelationshipNotFound = errors.New("relationship not found")
	ErrInvalidPageRequest   = errors.New("invalid page request")
	ErrInvalidRelationship  = errors.New("invalid relationship data")
	ErrConfiguration        = errors.New("configuration error")
)

// InvalidFilterTargetError is returned when a filter names an attribute the
// resource does not expose.
type InvalidFilterTargetError struct {
	Resource  string
	Attribute string
}

func (e *InvalidFilterTargetError) Error() string {
	return fmt.Sprintf("%s does not have a filterable attribute %q", e.Resource, e.Attribute)
}

func (e *InvalidFilterTargetError) Is(target error) bool {
	return target == ErrInvalidFilterTarget
}

// InvalidSortTargetError is returned when a sort key names an unknown attribute.
type InvalidSortTargetError struct {
	Resource  string
	Attribute string
}

func (e *InvalidSortTargetError) Error() string {
	return fmt.Sprintf("%s does not have a sortable attribute %q", e.Resource, e.Attribute)
}

func (e *InvalidSortTargetError) Is(target error) bool {
	return target == ErrInvalidSortTarget
}

// InvalidFieldTargetError is returned when a sparse fieldset names an unknown attribute.
type InvalidFieldTargetError struct {
	Resource  string
	Attribute string
}

func (e *InvalidFieldTargetError) Error() string {
	return fmt.Sprintf("%s does not have an attribute %q", e.Resource, e.Attribute)
}

func (e *InvalidFieldTargetError) Is(target error) bool {
	return target == ErrInvalidFieldTarget
}

// InvalidFilterError reports a filter whose operator or value cannot be
// applied to the resolved attribute.
type InvalidFilterError struct {
	Resource  string
	Attribute string
	Operator  string
	Message   string
}

func (e *InvalidFilterError) Error() string {
	target := e.Attribute
	if e.Resource != "" {
		target = e.Resource + "." + e.Attribute
	}
	return fmt.Sprintf("invalid filter on %s (%s): %s", target, e.Operator, e.Message)
}

func (e *InvalidFilterError) Is(target error) bool {
	return target == ErrInvalidFilter
}

// RelationshipNotFoundError is returned when a public relationship name does
// not resolve on the resource.
type RelationshipNotFoundError struct {
	Resource     string
	Relationship string
}

func (e *RelationshipNotFoundError) Error() string {
	return fmt.Sprintf("%s does not have a relationship %q", e.Resource, e.Relationship)
}

func (e *RelationshipNotFoundError) Is(target error) bool {
	return target == ErrRelationshipNotFound
}

// InvalidPageRequestError is returned for a positive page size combined with
// a page number below 1, or for page parameters that are not integers.
type InvalidPageRequestError struct {
	PageSize   int
	PageNumber int
	Reason     string
}

func (e *InvalidPageRequestError) Error() string {
	if e.Reason != "" {
		return "invalid page request: " + e.Reason
	}
	return fmt.Sprintf("invalid page request: page number %d must be >= 1 (page size %d)", e.PageNumber, e.PageSize)
}

func (e *InvalidPageRequestError) Is(target error) bool {
	return target == ErrInvalidPageRequest
}

// InvalidRelationshipDataError reports related identifiers that cannot be
// applied to a relationship, such as several ids for a to-one relationship or
// ids of entities that do not exist.
type InvalidRelationshipDataError struct {
	Resource     string
	Relationship string
	Message      string
}

func (e *InvalidRelationshipDataError) Error() string {
	return fmt.Sprintf("invalid data for relationship %s.%s: %s", e.Resource, e.Relationship, e.Message)
}

func (e *InvalidRelationshipDataError) Is(target error) bool {
	return target == ErrInvalidRelationship
}

// ConfigurationError is a setup fault such as an unregistered resource or a
// missing relationship processor. It is never a request-time condition.
type ConfigurationError struct {
	Component string
	Message   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Component, e.Message)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError formats a ConfigurationError for the given component.
func NewConfigurationError(component string, format string, args ...interface{}) error {
	return &ConfigurationError{Component: component, Message: fmt.Sprintf(format, args...)}
}

// IsClientError reports whether err was caused by request input.
func IsClientError(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range []error{
		ErrInvalidFilterTarget,
		ErrInvalidSortTarget,
		ErrInvalidFieldTarget,
		ErrInvalidFilter,
		ErrRelationshipNotFound,
		ErrInvalidPageRequest,
		ErrInvalidRelationship,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsConfigurationError reports whether err is a setup fault.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
