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


package quarry

import (
	"reflect"

	"github.com/uptrace/bun"

	"github.com/tomoncle/quarry/processor"
	"github.com/tomoncle/quarry/resource"
)

// Engine ties a database handle to the resource graph and the relationship
// processors registered for it. Register every resource before serving
// requests.
type Engine struct {
	db         *bun.DB
	graph      *resource.Graph
	processors *processor.Registry
}

// NewEngine returns an engine with an empty graph and processor registry.
func NewEngine(db *bun.DB) *Engine {
	return &Engine{
		db:         db,
		graph:      resource.NewGraph(db),
		processors: processor.NewRegistry(),
	}
}

func (e *Engine) DB() *bun.DB { return e.db }

func (e *Engine) Graph() *resource.Graph { return e.graph }

func (e *Engine) Processors() *processor.Registry { return e.processors }

// Validate reports relationships pointing at resources that were never
// registered.
func (e *Engine) Validate() error {
	return e.graph.Validate()
}

// Register adds T to the graph and binds the generic processor for
// relationships targeting T. Registering T again returns the existing
// resource.
func Register[T any](e *Engine, opts ...resource.Option) (*resource.Resource, error) {
	if res, ok := e.graph.ResourceOf(typeOf[T]()); ok {
		return res, nil
	}
	res, err := e.graph.Register((*T)(nil), opts...)
	if err != nil {
		return nil, err
	}
	e.processors.Register(res.Name, processor.NewGenericProcessor[T]())
	return res, nil
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
