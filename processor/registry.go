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

package processor

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tomoncle/quarry/database"
	qerrors "github.com/tomoncle/quarry/errors"
)

// Registry maps resource type tags to relationship processors. It is filled
// during startup and only read afterwards.
type Registry struct {
	mu         sync.RWMutex
	processors map[string]RelationshipProcessor
}

var _ Factory = (*Registry)(nil)

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{processors: make(map[string]RelationshipProcessor)}
}

// Register binds p to typeTag. Binding a tag twice is a programming error
// and panics.
func (r *Registry) Register(typeTag string, p RelationshipProcessor) {
	if p == nil {
		panic(fmt.Sprintf("processor: nil processor for %q", typeTag))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.processors[typeTag]; dup {
		panic(fmt.Sprintf("processor: %q registered twice", typeTag))
	}
	r.processors[typeTag] = p
	database.GetLogger().Debug("relationship processor registered", "type", typeTag, "processor", fmt.Sprintf("%T", p))
}

// Processor returns the processor bound to typeTag.
func (r *Registry) Processor(typeTag string) (RelationshipProcessor, error) {
	r.mu.RLock()
	p, ok := r.processors[typeTag]
	r.mu.RUnlock()
	if !ok {
		return nil, qerrors.NewConfigurationError("processor registry", "no relationship processor registered for %q", typeTag)
	}
	return p, nil
}

// Tags returns the registered type tags in sorted order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.processors))
	for tag := range r.processors {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
