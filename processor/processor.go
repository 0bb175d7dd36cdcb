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
	"context"

	"github.com/uptrace/bun"

	"github.com/tomoncle/quarry/resource"
)

// RelationshipProcessor replaces the set of entities related to parent
// through rel. parent is a pointer to the source resource struct and
// relatedIDs identify entities of the relationship's target type.
type RelationshipProcessor interface {
	UpdateRelationships(ctx context.Context, db bun.IDB, parent interface{}, rel *resource.Relationship, relatedIDs []interface{}) error
}

// Factory resolves the processor for a resource type tag.
type Factory interface {
	Processor(typeTag string) (RelationshipProcessor, error)
}

// Dispatch selects the processor specialized for the relationship target and
// runs it. An unresolvable processor is reported before the store is touched.
func Dispatch(ctx context.Context, factory Factory, db bun.IDB, parent interface{}, rel *resource.Relationship, relatedIDs []interface{}) error {
	p, err := factory.Processor(rel.TargetType)
	if err != nil {
		return err
	}
	return p.UpdateRelationships(ctx, db, parent, rel, relatedIDs)
}
