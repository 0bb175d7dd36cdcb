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
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun/schema"
)

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
)

// Coerce converts raw, typically a string taken from a query string or a
// JSON document, to the Go type of field. Values of types it does not know
// are returned unchanged for the driver to handle.
func Coerce(field *schema.Field, raw interface{}) (interface{}, error) {
	if raw == nil {
		return nil, nil
	}
	typ := field.IndirectType
	rv := reflect.ValueOf(raw)
	if rv.Type() == typ {
		return raw, nil
	}
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		return Coerce(field, rv.Elem().Interface())
	}

	s, isString := raw.(string)
	if !isString {
		if isNumber(rv.Kind()) && isNumber(typ.Kind()) {
			return convertNumber(rv, typ)
		}
		s = fmt.Sprint(raw)
	}

	switch typ {
	case timeType:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", time.DateOnly} {
			if tm, err := time.Parse(layout, s); err == nil {
				return tm, nil
			}
		}
		return nil, fmt.Errorf("%q is not a timestamp", s)
	case uuidType:
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%q is not a uuid: %w", s, err)
		}
		return id, nil
	}

	out := reflect.New(typ).Elem()
	switch typ.Kind() {
	case reflect.String:
		out.SetString(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, typ.Bits())
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", s)
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, typ.Bits())
		if err != nil {
			return nil, fmt.Errorf("%q is not an unsigned integer", s)
		}
		out.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(s, typ.Bits())
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", s)
		}
		out.SetFloat(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", s)
		}
		out.SetBool(b)
	default:
		return raw, nil
	}
	return out.Interface(), nil
}

// IsText reports whether the field holds character data.
func IsText(field *schema.Field) bool {
	return field.IndirectType.Kind() == reflect.String
}

func isNumber(k reflect.Kind) bool {
	return isInt(k) || isUint(k) || k == reflect.Float32 || k == reflect.Float64
}

// 2^63 and 2^64 as floats; every float at or above them overflows.
const (
	maxInt64Float  = 1 << 63
	maxUint64Float = 1 << 64
)

// convertNumber converts between numeric kinds, rejecting conversions that
// would truncate a fraction, wrap around or change sign.
func convertNumber(rv reflect.Value, typ reflect.Type) (interface{}, error) {
	out := reflect.New(typ).Elem()
	lossy := func() (interface{}, error) {
		return nil, fmt.Errorf("%v does not fit %s", rv.Interface(), typ)
	}
	switch {
	case isInt(typ.Kind()):
		var n int64
		switch {
		case isInt(rv.Kind()):
			n = rv.Int()
		case isUint(rv.Kind()):
			if rv.Uint() > math.MaxInt64 {
				return lossy()
			}
			n = int64(rv.Uint())
		default:
			f := rv.Float()
			if f != math.Trunc(f) || f < -maxInt64Float || f >= maxInt64Float {
				return lossy()
			}
			n = int64(f)
		}
		if out.OverflowInt(n) {
			return lossy()
		}
		out.SetInt(n)
	case isUint(typ.Kind()):
		var n uint64
		switch {
		case isInt(rv.Kind()):
			if rv.Int() < 0 {
				return lossy()
			}
			n = uint64(rv.Int())
		case isUint(rv.Kind()):
			n = rv.Uint()
		default:
			f := rv.Float()
			if f != math.Trunc(f) || f < 0 || f >= maxUint64Float {
				return lossy()
			}
			n = uint64(f)
		}
		if out.OverflowUint(n) {
			return lossy()
		}
		out.SetUint(n)
	default:
		var f float64
		switch {
		case isInt(rv.Kind()):
			f = float64(rv.Int())
		case isUint(rv.Kind()):
			f = float64(rv.Uint())
		default:
			f = rv.Float()
		}
		if out.OverflowFloat(f) {
			return lossy()
		}
		out.SetFloat(f)
	}
	return out.Interface(), nil
}

func isInt(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}
