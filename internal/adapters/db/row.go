// internal/adapters/db/row.go
package db

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/ammerola/consum-be/internal/core/domain"
)

var (
	errIncompatibleType = errors.New("incompatible type")
	errOutOfRange       = errors.New("value out of range")
	errNotFinite        = errors.New("value is not a finite number")
)

// Row is a read-only view over a single result tuple, addressed by column
// name. Column names are matched case-insensitively.
type Row struct {
	index  map[string]int
	values []any
}

// NewRow builds a Row from parallel column and value slices.
func NewRow(columns []string, values []any) Row {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		key := strings.ToLower(col)
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	return Row{index: index, values: values}
}

// RowFrom decodes the current row of a pgx result set.
func RowFrom(row pgx.CollectableRow) (Row, error) {
	values, err := row.Values()
	if err != nil {
		return Row{}, err
	}

	fields := row.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}
	return NewRow(columns, values), nil
}

// RowMapper adapts a Row mapping function to pgx.CollectRows.
func RowMapper[T any](mapFn func(Row) (T, error)) pgx.RowToFunc[T] {
	return func(row pgx.CollectableRow) (T, error) {
		r, err := RowFrom(row)
		if err != nil {
			var zero T
			return zero, err
		}
		return mapFn(r)
	}
}

// Lookup returns the raw value of col and whether the column exists.
func (r Row) Lookup(col string) (any, bool) {
	i, ok := r.index[strings.ToLower(col)]
	if !ok || i >= len(r.values) {
		return nil, false
	}
	return r.values[i], true
}

// Len returns the number of columns.
func (r Row) Len() int {
	return len(r.values)
}

// Required returns the value of col converted to T. An absent column or a NULL
// value yields *domain.MissingRequiredFieldError.
func Required[T any](r Row, col string) (T, error) {
	var zero T
	v, ok := r.Lookup(col)
	if !ok || isNull(v) {
		return zero, &domain.MissingRequiredFieldError{Column: col}
	}
	return convert[T](col, v)
}

// Optional returns nil for an absent column or NULL value, and fails only
// when a present value cannot be converted to T.
func Optional[T any](r Row, col string) (*T, error) {
	v, ok := r.Lookup(col)
	if !ok || isNull(v) {
		return nil, nil
	}
	out, err := convert[T](col, v)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Defaulted never fails: NULL, absent and unconvertible values all yield the
// zero value of T.
func Defaulted[T any](r Row, col string) T {
	v, err := Optional[T](r, col)
	if err != nil || v == nil {
		var zero T
		return zero
	}
	return *v
}

// String reads an optional text column into an owned string.
func String(r Row, col string) (*string, error) {
	return Optional[string](r, col)
}

// DateTime reads an optional timestamp column.
func DateTime(r Row, col string) (domain.DateTime, error) {
	t, err := Optional[time.Time](r, col)
	if err != nil {
		return domain.DateTime{}, err
	}
	return domain.DateTimeFrom(t), nil
}

// isNull treats typed nil pointers as NULL before consulting driver.Valuer,
// whose value-receiver methods panic on a nil pointer.
func isNull(v any) bool {
	if v == nil {
		return true
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return true
	}
	if valuer, ok := v.(driver.Valuer); ok {
		dv, err := valuer.Value()
		return err == nil && dv == nil
	}
	return false
}

func convert[T any](col string, v any) (T, error) {
	var out T
	var err error

	switch p := any(&out).(type) {
	case *int64:
		*p, err = toInt64(v)
	case *int32:
		*p, err = toSigned[int32](v, math.MinInt32, math.MaxInt32)
	case *int16:
		*p, err = toSigned[int16](v, math.MinInt16, math.MaxInt16)
	case *int:
		*p, err = toSigned[int](v, math.MinInt, math.MaxInt)
	case *float64:
		*p, err = toFloat64(v)
	case *float32:
		var f float64
		f, err = toFloat64(v)
		if err == nil && (f > math.MaxFloat32 || f < -math.MaxFloat32) {
			err = errOutOfRange
		}
		*p = float32(f)
	case *bool:
		*p, err = toBool(v)
	case *string:
		*p, err = toString(v)
	case *[]byte:
		*p, err = toBytes(v)
	case *time.Time:
		*p, err = toTime(v)
	case *decimal.Decimal:
		*p, err = toDecimal(v)
	case *uuid.UUID:
		*p, err = toUUID(v)
	default:
		typed, ok := v.(T)
		if !ok {
			err = errIncompatibleType
		}
		out = typed
	}

	if err != nil {
		var zero T
		return zero, &domain.ConversionError{
			Column: col,
			From:   fmt.Sprintf("%T", v),
			To:     fmt.Sprintf("%T", zero),
			Err:    err,
		}
	}
	return out, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, errOutOfRange
		}
		return int64(n), nil
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, errOutOfRange
		}
		return int64(n), nil
	case float64:
		return floatToInt64(n)
	case float32:
		return floatToInt64(float64(n))
	case pgtype.Numeric, decimal.Decimal:
		d, err := toDecimal(n)
		if err != nil {
			return 0, err
		}
		if !d.IsInteger() {
			return 0, errIncompatibleType
		}
		bi := d.BigInt()
		if !bi.IsInt64() {
			return 0, errOutOfRange
		}
		return bi.Int64(), nil
	default:
		return 0, errIncompatibleType
	}
}

func floatToInt64(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	if f != math.Trunc(f) {
		return 0, errIncompatibleType
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, errOutOfRange
	}
	return int64(f), nil
}

func toSigned[N int16 | int32 | int](v any, lo, hi int64) (N, error) {
	n, err := toInt64(v)
	if err != nil {
		return 0, err
	}
	if n < lo || n > hi {
		return 0, errOutOfRange
	}
	return N(n), nil
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case pgtype.Numeric, decimal.Decimal:
		d, err := toDecimal(n)
		if err != nil {
			return 0, err
		}
		f, _ := d.Float64()
		return f, nil
	default:
		i, err := toInt64(v)
		if err != nil {
			return 0, err
		}
		return float64(i), nil
	}
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case pgtype.Bool:
		return b.Bool, nil
	default:
		return false, errIncompatibleType
	}
}

func toString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return strings.Clone(s), nil
	case []byte:
		return string(s), nil
	case pgtype.Text:
		return s.String, nil
	default:
		return "", errIncompatibleType
	}
}

func toBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return append([]byte(nil), b...), nil
	case string:
		return []byte(b), nil
	default:
		return nil, errIncompatibleType
	}
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case pgtype.Timestamp:
		if t.InfinityModifier != pgtype.Finite {
			return time.Time{}, errNotFinite
		}
		return t.Time, nil
	case pgtype.Timestamptz:
		if t.InfinityModifier != pgtype.Finite {
			return time.Time{}, errNotFinite
		}
		return t.Time, nil
	case pgtype.Date:
		if t.InfinityModifier != pgtype.Finite {
			return time.Time{}, errNotFinite
		}
		return t.Time, nil
	default:
		return time.Time{}, errIncompatibleType
	}
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case pgtype.Numeric:
		if n.NaN || n.InfinityModifier != pgtype.Finite {
			return decimal.Decimal{}, errNotFinite
		}
		if n.Int == nil {
			return decimal.Zero, nil
		}
		return decimal.NewFromBigInt(new(big.Int).Set(n.Int), n.Exp), nil
	case string:
		return decimal.NewFromString(n)
	case []byte:
		return decimal.NewFromString(string(n))
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Decimal{}, errNotFinite
		}
		return decimal.NewFromFloat(n), nil
	case float32:
		return decimal.NewFromFloat32(n), nil
	default:
		i, err := toInt64(v)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromInt(i), nil
	}
}

func toUUID(v any) (uuid.UUID, error) {
	switch u := v.(type) {
	case uuid.UUID:
		return u, nil
	case [16]byte:
		return uuid.UUID(u), nil
	case pgtype.UUID:
		return uuid.UUID(u.Bytes), nil
	case string:
		return uuid.Parse(u)
	case []byte:
		if len(u) == 16 {
			return uuid.FromBytes(u)
		}
		return uuid.ParseBytes(u)
	default:
		return uuid.Nil, errIncompatibleType
	}
}
