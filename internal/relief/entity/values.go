package entity

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	dErrors "relief/pkg/domain-errors"
)

// Record is one row as returned to callers, keyed by column name.
type Record map[string]any

// IsBlank reports whether v is null or a whitespace-only string.
func IsBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

// Input returns the value submitted for f under its name or any alias.
func Input(fields map[string]any, f Field) (any, bool) {
	if v, ok := fields[f.Name]; ok {
		return v, true
	}
	for _, alias := range f.Aliases {
		if v, ok := fields[alias]; ok {
			return v, true
		}
	}
	return nil, false
}

// Coerce converts a non-blank input value into the column's Go type.
func Coerce(f Field, v any) (any, error) {
	var (
		out any
		ok  bool
	)
	switch f.Type {
	case TypeInt:
		out, ok = coerceInt(v)
	case TypeDate:
		out, ok = coerceDate(v)
	default:
		out, ok = coerceText(v)
	}
	if !ok {
		return nil, InvalidField(f.Name)
	}
	return out, nil
}

// InvalidField is the validation error for a value that cannot be coerced.
func InvalidField(name string) error {
	return dErrors.New(dErrors.CodeValidation, "Invalid value for field: "+name)
}

// MissingField is the validation error for an absent or blank required value.
func MissingField(name string) error {
	return dErrors.New(dErrors.CodeValidation, "Missing required field: "+name)
}

func coerceText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

func coerceInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		return integral(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return integral(f)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func integral(f float64) (int64, bool) {
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if f != math.Trunc(f) || math.IsInf(f, 0) || f >= 1<<63 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func coerceDate(v any) (string, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.Format(time.DateOnly), true
	case string:
		s := strings.TrimSpace(t)
		if d, err := time.Parse(time.DateOnly, s); err == nil {
			return d.Format(time.DateOnly), true
		}
		if d, err := time.Parse(time.RFC3339, s); err == nil {
			return d.Format(time.DateOnly), true
		}
	}
	return "", false
}

// Normalize converts a scanned column value into its JSON form.
// Dates come back from Postgres as time.Time and from SQLite as text.
func Normalize(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.Format(time.DateOnly)
	case []byte:
		return string(t)
	}
	return v
}
