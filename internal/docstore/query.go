package docstore

import (
	"fmt"
	"reflect"
	"strings"
)

type Op string

const (
	OpEqual         Op = "=="
	OpArrayContains Op = "array-contains"
)

type Filter struct {
	Field string
	Op    Op
	Value any
}

func Where(field string, op Op, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Query is either a point query (DocumentID set) or a collection query with
// optional filters. Collection results are ordered by document id.
type Query struct {
	Collection CollectionRef
	DocumentID string
	Filters    []Filter
}

func DocumentQuery(ref DocumentRef) Query {
	return Query{Collection: ref.Parent, DocumentID: ref.ID}
}

func CollectionQuery(c CollectionRef, filters ...Filter) Query {
	return Query{Collection: c, Filters: filters}
}

func (q Query) IsDocument() bool { return q.DocumentID != "" }

func (q Query) Document() DocumentRef {
	return q.Collection.Doc(q.DocumentID)
}

// Affected reports whether a write to ref can change the result of q.
func (q Query) Affected(ref DocumentRef) bool {
	if q.IsDocument() {
		return ref == q.Document()
	}
	return ref.Parent == q.Collection
}

// Matches evaluates the filters against a document of the queried collection.
func (q Query) Matches(doc Document) bool {
	if !doc.Exists {
		return false
	}
	for _, f := range q.Filters {
		v, ok := doc.Fields[f.Field]
		if !ok {
			return false
		}
		switch f.Op {
		case OpEqual:
			if !equalValues(v, f.Value) {
				return false
			}
		case OpArrayContains:
			if !arrayContains(v, f.Value) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func (q Query) String() string {
	if q.IsDocument() {
		return q.Document().Path()
	}
	var sb strings.Builder
	sb.WriteString(q.Collection.Path())
	for _, f := range q.Filters {
		fmt.Fprintf(&sb, " where %s %s %v", f.Field, f.Op, f.Value)
	}
	return sb.String()
}

func arrayContains(v, want any) bool {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if equalValues(rv.Index(i).Interface(), want) {
			return true
		}
	}
	return false
}

// equalValues compares values as they come back from a JSON round trip, where
// every number is a float64.
func equalValues(a, b any) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
