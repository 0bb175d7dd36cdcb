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

// Package request carries the per-request inputs of the repository on a
// context.Context: the sparse fieldset and the attributes and relationships
// a PATCH touches.
package request

import (
	"context"
	"sort"
)

type contextKey struct{}

// Context holds public attribute and relationship names. Names are resolved
// against the resource when the repository uses them.
type Context struct {
	// Fields restricts the selected attributes; empty selects all.
	Fields []string
	// AttributesToUpdate names the attributes Update copies from the patch.
	AttributesToUpdate map[string]struct{}
	// RelationshipsToUpdate maps relationship names to the new related ids.
	RelationshipsToUpdate map[string][]interface{}
}

// New returns an empty request context.
func New() *Context {
	return &Context{
		AttributesToUpdate:    make(map[string]struct{}),
		RelationshipsToUpdate: make(map[string][]interface{}),
	}
}

// WithFields sets the sparse fieldset.
func (c *Context) WithFields(fields ...string) *Context {
	c.Fields = append(c.Fields[:0:0], fields...)
	return c
}

// Touch marks attributes as present in the patch.
func (c *Context) Touch(attributes ...string) *Context {
	if c.AttributesToUpdate == nil {
		c.AttributesToUpdate = make(map[string]struct{})
	}
	for _, a := range attributes {
		c.AttributesToUpdate[a] = struct{}{}
	}
	return c
}

// SetRelationship records the new related ids of a relationship.
func (c *Context) SetRelationship(name string, ids ...interface{}) *Context {
	if c.RelationshipsToUpdate == nil {
		c.RelationshipsToUpdate = make(map[string][]interface{})
	}
	c.RelationshipsToUpdate[name] = ids
	return c
}

// Touched reports whether attribute is part of the patch.
func (c *Context) Touched(attribute string) bool {
	if c == nil {
		return false
	}
	_, ok := c.AttributesToUpdate[attribute]
	return ok
}

// Relationships returns the relationship names to update in sorted order.
func (c *Context) Relationships() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.RelationshipsToUpdate))
	for name := range c.RelationshipsToUpdate {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithContext returns a copy of ctx carrying rc.
func WithContext(ctx context.Context, rc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

// FromContext returns the request context carried by ctx, or an empty one.
func FromContext(ctx context.Context) *Context {
	if rc, ok := ctx.Value(contextKey{}).(*Context); ok && rc != nil {
		return rc
	}
	return New()
}
