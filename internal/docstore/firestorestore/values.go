package firestorestore

import (
	"github.com/shopspring/decimal"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/docstore"
)

// Decimals are kept as strings so that no precision is lost to float64.

func toData(fields docstore.Fields) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range docstore.Normalize(fields) {
		out[k] = v
	}
	return out
}

func fromData(data map[string]any) docstore.Fields {
	out := make(docstore.Fields, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func toValue(v any) any {
	switch t := v.(type) {
	case decimal.Decimal:
		return t.String()
	case *decimal.Decimal:
		if t == nil {
			return nil
		}
		return t.String()
	default:
		return v
	}
}
