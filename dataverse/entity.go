package dataverse

import "strconv"

// RowNumberAttribute is the synthetic attribute injected into every entity
// returned by RetrieveMultiple. It is 1-based and strictly increasing across
// all pages of a single retrieval. It never appears in the raw Web API
// payload.
const RowNumberAttribute = "__rownum"

// ValueKind identifies which variant a Value holds.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindInt
	KindFloat
	KindString
	KindBool
)

// Value is a typed scalar attribute value. It is a closed variant over
// int64, float64, string, bool and null; Dataverse never returns anything
// else for a FetchXML attribute.
type Value struct {
	kind ValueKind
	i    int64
	f    float64
	s    string
	b    bool
}

func NullValue() Value            { return Value{kind: KindNull} }
func IntValue(i int64) Value      { return Value{kind: KindInt, i: i} }
func FloatValue(f float64) Value  { return Value{kind: KindFloat, f: f} }
func StringValue(s string) Value  { return Value{kind: KindString, s: s} }
func BoolValue(b bool) Value      { return Value{kind: KindBool, b: b} }

// Kind reports which variant the value holds.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether the value is the null variant.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Int returns the int64 variant. The second return is false for any other kind.
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInt }

// Float returns the float64 variant. The second return is false for any other kind.
func (v Value) Float() (float64, bool) { return v.f, v.kind == KindFloat }

// Bool returns the bool variant. The second return is false for any other kind.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// String renders the value for display. Null renders as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindString:
		return v.s
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Any returns the value as a plain Go value (nil for null), suitable for
// passing to encoding/json or database drivers.
func (v Value) Any() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// Entity is one materialized result row: attribute name to typed value.
// Attribute names are unique within a row.
type Entity map[string]Value

// RowNumber returns the synthetic row number injected by RetrieveMultiple.
func (e Entity) RowNumber() (int64, bool) {
	v, ok := e[RowNumberAttribute]
	if !ok {
		return 0, false
	}
	return v.Int()
}
