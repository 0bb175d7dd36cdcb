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
	"net/http"

	"github.com/tomoncle/quarry/database"
)

// StatusCode maps an error returned by the repository or service to the HTTP
// status a request handler should answer with.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsClientError(err):
		return http.StatusBadRequest
	case IsConfigurationError(err):
		return http.StatusInternalServerError
	}
	ok, class := database.IsSqlError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch class {
	case database.NoRowsErr:
		return http.StatusNotFound
	case database.DuplicateKeyErr, database.ForeignKeyViolationErr:
		return http.StatusConflict
	case database.NotNullViolationErr, database.CheckConstraintViolationErr,
		database.DataTruncatedErr, database.InvalidTypeCastErr:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
