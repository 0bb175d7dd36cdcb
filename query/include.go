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

package query

import (
	"strings"

	"github.com/uptrace/bun"

	qerrors "github.com/tomoncle/quarry/errors"
	"github.com/tomoncle/quarry/resource"
)

// Include eager-loads the relationship named by its public name. A dotted
// path such as "comments.author" loads nested relationships, each segment
// resolved against the previous segment's target.
func Include[T any](q Query[T], name string) (Query[T], error) {
	path, err := RelationPath(q.resource, name)
	if err != nil {
		return q, err
	}
	return q.With(func(sq *bun.SelectQuery) *bun.SelectQuery {
		return sq.Relation(path)
	}), nil
}

// RelationPath translates a public, possibly dotted, relationship path into
// the bun relation path.
func RelationPath(res *resource.Resource, name string) (string, error) {
	segments := strings.Split(name, ".")
	internal := make([]string, 0, len(segments))
	current := res
	for i, segment := range segments {
		if current == nil {
			return "", qerrors.NewConfigurationError("query", "target of %s.%s is not registered", res.Name, strings.Join(segments[:i], "."))
		}
		rel, ok := current.Relationship(segment)
		if !ok {
			return "", &qerrors.RelationshipNotFoundError{Resource: current.Name, Relationship: name}
		}
		internal = append(internal, rel.InternalName)
		current = rel.Target
	}
	return strings.Join(internal, "."), nil
}
