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

package resource

import (
	"fmt"
	"reflect"

	"github.com/uptrace/bun/schema"
)

// Attribute binds a public attribute name to a column of the resource table.
// The bun field carries the struct index path, so reads and writes never
// search the struct by name.
type Attribute struct {
	PublicName   string
	InternalName string
	Field        *schema.Field
	IsID         bool
}

// Column returns the unquoted column name.
func (a *Attribute) Column() string { return a.Field.Name }

// Get returns the attribute value of an addressable struct value.
func (a *Attribute) Get(strct reflect.Value) interface{} {
	return a.Field.Value(strct).Interface()
}

// Set coerces value to the attribute type and stores it on strct.
func (a *Attribute) Set(strct reflect.Value, value interface{}) error {
	return SetField(a.Field, strct, value)
}

// SetField coerces value to the type of f and stores it on strct. A nil
// value stores the zero value.
func SetField(f *schema.Field, strct reflect.Value, value interface{}) error {
	coerced, err := Coerce(f, value)
	if err != nil {
		return err
	}
	fv := f.Value(strct)
	if coerced == nil {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}
	cv := reflect.ValueOf(coerced)
	if fv.Kind() == reflect.Ptr && cv.Kind() != reflect.Ptr {
		ptr := reflect.New(fv.Type().Elem())
		ptr.Elem().Set(cv)
		cv = ptr
	}
	if !cv.Type().AssignableTo(fv.Type()) {
		if !cv.Type().ConvertibleTo(fv.Type()) {
			return fmt.Errorf("cannot assign %s to %s", cv.Type(), fv.Type())
		}
		cv = cv.Convert(fv.Type())
	}
	fv.Set(cv)
	return nil
}

// Copy copies the attribute from src to dst; both must be addressable
// values of the resource struct type.
func (a *Attribute) Copy(dst, src reflect.Value) {
	a.Field.Value(dst).Set(a.Field.Value(src))
}

// RelationshipKind mirrors the bun relation types.
type RelationshipKind int

const (
	BelongsTo RelationshipKind = iota + 1
	HasOne
	HasMany
	ManyToMany
)

func kindOf(relType int) RelationshipKind {
	switch relType {
	case schema.BelongsToRelation:
		return BelongsTo
	case schema.HasOneRelation:
		return HasOne
	case schema.HasManyRelation:
		return HasMany
	case schema.ManyToManyRelation:
		return ManyToMany
	}
	return 0
}

func (k RelationshipKind) String() string {
	switch k {
	case BelongsTo:
		return "belongs-to"
	case HasOne:
		return "has-one"
	case HasMany:
		return "has-many"
	case ManyToMany:
		return "many-to-many"
	}
	return "unknown"
}

// ToMany reports whether the relationship holds a list of related entities.
func (k RelationshipKind) ToMany() bool { return k == HasMany || k == ManyToMany }

// Relationship is the descriptor of a relationship: its public name, the
// bun relation name used for eager loading, and the target resource type.
type Relationship struct {
	PublicName   string
	InternalName string
	TargetType   string
	Kind         RelationshipKind
	Relation     *schema.Relation
	Source       *Resource
	Target       *Resource

	targetGoType reflect.Type
}

func (r *Relationship) String() string {
	return fmt.Sprintf("%s.%s (%s %s)", r.Source.Name, r.PublicName, r.Kind, r.TargetType)
}

// Resource is the metadata of one registered entity type.
type Resource struct {
	Name  string
	Type  reflect.Type
	Table *schema.Table

	id              *Attribute
	attributes      []*Attribute
	attributeMap    map[string]*Attribute
	relationships   []*Relationship
	relationshipMap map[string]*Relationship
}

// ID returns the primary key attribute.
func (r *Resource) ID() *Attribute { return r.id }

// Alias returns the table alias bun uses for the resource in SELECT queries.
func (r *Resource) Alias() string { return r.Table.Alias }

// Attribute resolves a public attribute name.
func (r *Resource) Attribute(name string) (*Attribute, bool) {
	a, ok := r.attributeMap[name]
	return a, ok
}

// Attributes returns the attributes in declaration order.
func (r *Resource) Attributes() []*Attribute { return r.attributes }

// Relationship resolves a public relationship name.
func (r *Resource) Relationship(name string) (*Relationship, bool) {
	rel, ok := r.relationshipMap[name]
	return rel, ok
}

// Relationships returns the relationships in declaration order.
func (r *Resource) Relationships() []*Relationship { return r.relationships }

// IDOf returns the identifier of entity, a pointer to the resource struct.
func (r *Resource) IDOf(entity interface{}) (interface{}, error) {
	v, err := r.Indirect(entity)
	if err != nil {
		return nil, err
	}
	return r.id.Get(v), nil
}

// Indirect returns the addressable struct value behind entity.
func (r *Resource) Indirect(entity interface{}) (reflect.Value, error) {
	v := reflect.ValueOf(entity)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Type() != r.Type {
		return reflect.Value{}, fmt.Errorf("%s: expected *%s, got %T", r.Name, r.Type, entity)
	}
	return v.Elem(), nil
}
