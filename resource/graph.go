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
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-openapi/inflect"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	qerrors "github.com/tomoncle/quarry/errors"
)

const component = "resource graph"

type options struct {
	name string
}

// Option customizes a resource registration.
type Option func(*options)

// WithName overrides the public resource name derived from the type name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// Graph holds the metadata of every registered resource. It is filled at
// startup and read concurrently afterwards.
type Graph struct {
	db     *bun.DB
	mu     sync.RWMutex
	byName map[string]*Resource
	byType map[reflect.Type]*Resource
}

// NewGraph returns an empty graph reading table metadata from db.
func NewGraph(db *bun.DB) *Graph {
	return &Graph{
		db:     db,
		byName: make(map[string]*Resource),
		byType: make(map[reflect.Type]*Resource),
	}
}

// DefaultName derives the public resource name of a Go type, e.g.
// BlogPost -> blog-posts.
func DefaultName(typ reflect.Type) string {
	return inflect.Dasherize(inflect.Tableize(typ.Name()))
}

// Register builds the resource of model, a struct or pointer to struct known
// to bun. Registering the same type twice returns the first resource.
func (g *Graph) Register(model interface{}, opts ...Option) (*Resource, error) {
	typ := reflect.TypeOf(model)
	for typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil, qerrors.NewConfigurationError(component, "model must be a struct, got %T", model)
	}

	o := options{name: DefaultName(typ)}
	for _, opt := range opts {
		opt(&o)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if res, ok := g.byType[typ]; ok {
		return res, nil
	}
	if other, ok := g.byName[o.name]; ok {
		return nil, qerrors.NewConfigurationError(component, "resource name %q already used by %s", o.name, other.Type)
	}

	res, err := g.build(o.name, typ)
	if err != nil {
		return nil, err
	}
	g.byName[res.Name] = res
	g.byType[typ] = res
	g.link()
	return res, nil
}

func (g *Graph) build(name string, typ reflect.Type) (res *Resource, err error) {
	defer func() {
		// bun panics on malformed relation tags while building the table.
		if r := recover(); r != nil {
			res, err = nil, qerrors.NewConfigurationError(component, "%s: %v", typ, r)
		}
	}()
	table := g.db.Table(typ)
	if len(table.PKs) != 1 {
		return nil, qerrors.NewConfigurationError(component, "%s must have exactly one primary key, has %d", typ, len(table.PKs))
	}

	res = &Resource{
		Name:            name,
		Type:            typ,
		Table:           table,
		attributeMap:    make(map[string]*Attribute),
		relationshipMap: make(map[string]*Relationship),
	}
	for _, f := range table.Fields {
		attr := &Attribute{PublicName: publicName(f), InternalName: f.GoName, Field: f, IsID: f.IsPK}
		if attr.IsID {
			attr.PublicName = "id"
			res.id = attr
		}
		if attr.PublicName == "-" {
			continue
		}
		res.attributes = append(res.attributes, attr)
		res.attributeMap[attr.PublicName] = attr
	}

	rels := make([]*schema.Relation, 0, len(table.Relations))
	for _, rel := range table.Relations {
		rels = append(rels, rel)
	}
	sort.Slice(rels, func(i, j int) bool { return lessIndex(rels[i].Field.Index, rels[j].Field.Index) })
	for _, rel := range rels {
		pub := publicName(rel.Field)
		if pub == "-" {
			continue
		}
		r := &Relationship{
			PublicName:   pub,
			InternalName: rel.Field.GoName,
			TargetType:   DefaultName(rel.JoinTable.Type),
			Kind:         kindOf(rel.Type),
			Relation:     rel,
			Source:       res,
			targetGoType: rel.JoinTable.Type,
		}
		res.relationships = append(res.relationships, r)
		res.relationshipMap[pub] = r
	}
	return res, nil
}

// link resolves relationship targets against the registered resources.
func (g *Graph) link() {
	for _, res := range g.byName {
		for _, rel := range res.relationships {
			if rel.Target != nil {
				continue
			}
			if target, ok := g.byType[rel.targetGoType]; ok {
				rel.Target = target
				rel.TargetType = target.Name
			}
		}
	}
}

// Resource returns the resource registered under a public name.
func (g *Graph) Resource(name string) (*Resource, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	res, ok := g.byName[name]
	return res, ok
}

// ResourceOf returns the resource registered for a struct type.
func (g *Graph) ResourceOf(typ reflect.Type) (*Resource, bool) {
	for typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	res, ok := g.byType[typ]
	return res, ok
}

// Resources returns all resources ordered by name.
func (g *Graph) Resources() []*Resource {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Resource, 0, len(g.byName))
	for _, res := range g.byName {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Validate reports relationships whose target type was never registered.
func (g *Graph) Validate() error {
	var missing []string
	for _, res := range g.Resources() {
		for _, rel := range res.relationships {
			if rel.Target == nil {
				missing = append(missing, res.Name+"."+rel.PublicName+" -> "+rel.targetGoType.String())
			}
		}
	}
	if len(missing) > 0 {
		return qerrors.NewConfigurationError(component, "unregistered relationship targets: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Of returns the resource registered for T.
func Of[T any](g *Graph) (*Resource, error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	res, ok := g.ResourceOf(typ)
	if !ok {
		return nil, qerrors.NewConfigurationError(component, "%s is not registered", typ)
	}
	return res, nil
}

func publicName(f *schema.Field) string {
	if tag, ok := f.StructField.Tag.Lookup("json"); ok {
		name, _, _ := strings.Cut(tag, ",")
		if name != "" {
			return name
		}
	}
	return f.Name
}

func lessIndex(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
