package types

import (
	"math"
	"reflect"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrNotConvertible is returned when a host value has no engine
	// representation for the requested type.
	ErrNotConvertible = errors.NewKind("cannot convert value of type %s to %s")
	// ErrOutOfRange is returned when a numeric value does not fit the target type.
	ErrOutOfRange = errors.NewKind("value %v is out of range for %s")
)

const dateLayout = "2006-01-02"

// ToEngine converts a Go host value to the engine representation of t.
// Nil stays nil. ARRAY, STRUCT and OBJECT values are passed through.
func ToEngine(t *DataType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t.Kind {
	case KindBoolean:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Bool {
			return rv.Bool(), nil
		}
	case KindByte:
		n, err := toInt64(t, v)
		if err != nil {
			return nil, err
		}
		if n < math.MinInt8 || n > math.MaxInt8 {
			return nil, ErrOutOfRange.New(v, t)
		}
		return int8(n), nil
	case KindShort:
		n, err := toInt64(t, v)
		if err != nil {
			return nil, err
		}
		if n < math.MinInt16 || n > math.MaxInt16 {
			return nil, ErrOutOfRange.New(v, t)
		}
		return int16(n), nil
	case KindInteger:
		n, err := toInt64(t, v)
		if err != nil {
			return nil, err
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, ErrOutOfRange.New(v, t)
		}
		return int32(n), nil
	case KindLong:
		return toInt64(t, v)
	case KindFloat:
		f, err := toFloat64(t, v)
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	case KindDouble:
		return toFloat64(t, v)
	case KindDecimal:
		d, err := toDecimal(t, v)
		if err != nil {
			return nil, err
		}
		if t.Scale > 0 {
			d = d.Round(int32(t.Scale))
		}
		return d, nil
	case KindString:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.String {
			return rv.String(), nil
		}
	case KindBinary:
		switch b := v.(type) {
		case []byte:
			return b, nil
		case string:
			return []byte(b), nil
		}
	case KindDate:
		switch d := v.(type) {
		case time.Time:
			return DaysSinceEpoch(d), nil
		case string:
			tm, err := time.Parse(dateLayout, d)
			if err != nil {
				return nil, ErrNotConvertible.New(reflect.TypeOf(v), t)
			}
			return DaysSinceEpoch(tm), nil
		}
		n, err := toInt64(t, v)
		if err != nil {
			return nil, err
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, ErrOutOfRange.New(v, t)
		}
		return int32(n), nil
	case KindTimestamp:
		switch ts := v.(type) {
		case time.Time:
			return ts.UnixMicro(), nil
		case string:
			tm, err := time.Parse(time.RFC3339Nano, ts)
			if err != nil {
				return nil, ErrNotConvertible.New(reflect.TypeOf(v), t)
			}
			return tm.UnixMicro(), nil
		}
		return toInt64(t, v)
	case KindArray, KindStruct, KindObject:
		return v, nil
	}
	return nil, ErrNotConvertible.New(reflect.TypeOf(v), t)
}

// DaysSinceEpoch returns the number of whole days between the Unix epoch and
// the UTC calendar date of tm.
func DaysSinceEpoch(tm time.Time) int32 {
	y, m, d := tm.UTC().Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int32(midnight.Unix() / 86400)
}

// DateFromDays is the inverse of DaysSinceEpoch.
func DateFromDays(days int32) time.Time {
	return time.Unix(int64(days)*86400, 0).UTC()
}

func toInt64(t *DataType, v any) (int64, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, ErrOutOfRange.New(v, t)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		// float64(math.MaxInt64) rounds up to 2^63, which does not fit.
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, ErrNotConvertible.New(rv.Type(), t)
		}
		return int64(f), nil
	}
	return 0, ErrNotConvertible.New(rv.Type(), t)
}

func toFloat64(t *DataType, v any) (float64, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return 0, ErrNotConvertible.New(rv.Type(), t)
}

func toDecimal(t *DataType, v any) (decimal.Decimal, error) {
	switch d := v.(type) {
	case decimal.Decimal:
		return d, nil
	case *decimal.Decimal:
		return *d, nil
	case string:
		parsed, err := decimal.NewFromString(d)
		if err != nil {
			return decimal.Decimal{}, ErrNotConvertible.New(reflect.TypeOf(v), t)
		}
		return parsed, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return decimal.NewFromInt(rv.Int()), nil
	case reflect.Float32, reflect.Float64:
		return decimal.NewFromFloat(rv.Float()), nil
	}
	return decimal.Decimal{}, ErrNotConvertible.New(rv.Type(), t)
}
