package docstore

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Fields is the content of a document. Decimal values are stored as strings
// so that no backend turns money into binary floats.
type Fields map[string]any

func (f Fields) String(key string) string {
	switch v := f[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (f Fields) Bool(key string) bool {
	switch v := f[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

func (f Fields) Int64(key string) int64 {
	switch v := f[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

func (f Fields) Float64(key string) float64 {
	if n, ok := toFloat(f[key]); ok {
		return n
	}
	switch v := f[key].(type) {
	case json.Number:
		n, _ := v.Float64()
		return n
	case string:
		n, _ := strconv.ParseFloat(v, 64)
		return n
	default:
		return 0
	}
}

// Decimal reads a decimal field. A missing field is zero. Numbers written by
// other clients as floats are accepted.
func (f Fields) Decimal(key string) (decimal.Decimal, error) {
	switch v := f[key].(type) {
	case nil:
		return decimal.Zero, nil
	case string:
		if v == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("field %s: %w", key, err)
		}
		return d, nil
	case decimal.Decimal:
		return v, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("field %s: %w", key, err)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("field %s: unsupported decimal type %T", key, v)
	}
}

func (f Fields) Strings(key string) []string {
	switch v := f[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// ApplyIncrement returns a copy of f with delta added to the decimal field.
func ApplyIncrement(f Fields, field string, delta decimal.Decimal) (Fields, error) {
	cur, err := f.Decimal(field)
	if err != nil {
		return nil, err
	}
	out := f.Clone()
	out[field] = cur.Add(delta).String()
	return out, nil
}

// Normalize converts values that backends cannot store natively, such as
// decimals, into their stored form.
func Normalize(f Fields) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		switch t := v.(type) {
		case decimal.Decimal:
			out[k] = t.String()
		case *decimal.Decimal:
			if t != nil {
				out[k] = t.String()
			}
		default:
			out[k] = v
		}
	}
	return out
}
