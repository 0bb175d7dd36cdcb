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

package database

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

type SQLError int

const (
	UnknownErr SQLError = iota
	NoRowsErr
	NoColumnErr
	NoTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	DataTruncatedErr
	InvalidTypeCastErr
)

func (e SQLError) String() string {
	switch e {
	case NoRowsErr:
		return "no_rows"
	case NoColumnErr:
		return "no_column"
	case NoTableErr:
		return "no_table"
	case DuplicateKeyErr:
		return "duplicate_key"
	case NotNullViolationErr:
		return "not_null_violation"
	case ForeignKeyViolationErr:
		return "foreign_key_violation"
	case CheckConstraintViolationErr:
		return "check_violation"
	case DataTruncatedErr:
		return "data_truncated"
	case InvalidTypeCastErr:
		return "invalid_type_cast"
	default:
		return "unknown"
	}
}

// IsConstraintViolation reports whether the class describes rejected data
// rather than a broken query or connection.
func (e SQLError) IsConstraintViolation() bool {
	switch e {
	case DuplicateKeyErr, NotNullViolationErr, ForeignKeyViolationErr,
		CheckConstraintViolationErr, DataTruncatedErr, InvalidTypeCastErr:
		return true
	}
	return false
}

var mysqlErrorNumbers = map[uint16]SQLError{
	1054: NoColumnErr,
	1146: NoTableErr,
	1062: DuplicateKeyErr,
	1048: NotNullViolationErr,
	1216: ForeignKeyViolationErr,
	1217: ForeignKeyViolationErr,
	1451: ForeignKeyViolationErr,
	1452: ForeignKeyViolationErr,
	3819: CheckConstraintViolationErr,
	1265: DataTruncatedErr,
	1406: DataTruncatedErr,
}

// message fragments emitted by lib/pq and the sqlite drivers, lower-cased.
var messagePatterns = []struct {
	class    SQLError
	patterns []string
}{
	{NoColumnErr, []string{"sqlstate 42703", "undefined column", "no such column"}},
	{NoTableErr, []string{"sqlstate 42p01", "undefined table", "no such table"}},
	{DuplicateKeyErr, []string{"duplicate key value", "unique constraint failed", "sqlstate 23505"}},
	{NotNullViolationErr, []string{"not-null constraint", "sqlstate 23502", "not null constraint failed"}},
	{ForeignKeyViolationErr, []string{"foreign key violation", "foreign key constraint failed", "violates foreign key constraint", "sqlstate 23503"}},
	{CheckConstraintViolationErr, []string{"check constraint", "sqlstate 23514"}},
	{DataTruncatedErr, []string{"string data right truncation", "sqlstate 22001", "data truncated"}},
	{InvalidTypeCastErr, []string{"datatype mismatch", "sqlstate 42804", "invalid input syntax"}},
}

// IsSqlError classifies a store error. The first result is false when err
// does not look like an error produced by a database driver.
func IsSqlError(err error) (is bool, sqlErr SQLError) {
	if err == nil {
		return false, UnknownErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return true, NoRowsErr
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		if class, ok := mysqlErrorNumbers[mysqlErr.Number]; ok {
			return true, class
		}
		return true, UnknownErr
	}
	s := strings.ToLower(err.Error())
	for _, p := range messagePatterns {
		for _, fragment := range p.patterns {
			if strings.Contains(s, fragment) {
				return true, p.class
			}
		}
	}
	return false, UnknownErr
}
