package wire

import "fmt"

// Kind discriminates the payload held by a Dynamic value.
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
)

// Dynamic is a tagged union over the handful of scalar shapes DAP's "any"
// fields are allowed to take. It is the wire counterpart of dap::any: a
// DynamicValue that type-round-trips through JSON for Bool, Int, Float and
// String, and errors for everything else (§4.2: "other shapes are a
// deserialize error").
//
// Go has no pointer-identity type descriptor to discriminate on the way the
// original does (every TypeOf<T>::type() returns the same static address
// for a given T); an explicit Kind tag does the same job without needing
// one, and is the more idiomatic Go shape for a small closed tagged union.
type Dynamic struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

func DynamicBool(v bool) Dynamic     { return Dynamic{kind: KindBool, b: v} }
func DynamicInt(v int64) Dynamic     { return Dynamic{kind: KindInt, i: v} }
func DynamicFloat(v float64) Dynamic { return Dynamic{kind: KindFloat, f: v} }
func DynamicString(v string) Dynamic { return Dynamic{kind: KindString, s: v} }

func (d Dynamic) Kind() Kind { return d.kind }

func (d Dynamic) Bool() (bool, bool)       { return d.b, d.kind == KindBool }
func (d Dynamic) Int() (int64, bool)       { return d.i, d.kind == KindInt }
func (d Dynamic) Float() (float64, bool)   { return d.f, d.kind == KindFloat }
func (d Dynamic) String() string {
	switch d.kind {
	case KindBool:
		return fmt.Sprintf("%t", d.b)
	case KindInt:
		return fmt.Sprintf("%d", d.i)
	case KindFloat:
		return fmt.Sprintf("%g", d.f)
	case KindString:
		return d.s
	default:
		return ""
	}
}
func (d Dynamic) RawString() (string, bool) { return d.s, d.kind == KindString }

// toAny lowers a Dynamic to the plain Go value the generic JSON tree
// serializer understands.
func (d Dynamic) toAny() (any, error) {
	switch d.kind {
	case KindBool:
		return d.b, nil
	case KindInt:
		return d.i, nil
	case KindFloat:
		return d.f, nil
	case KindString:
		return d.s, nil
	default:
		return nil, fmt.Errorf("wire: cannot serialize Dynamic with no value set")
	}
}

// dynamicFromAny raises a decoded JSON scalar (bool, float64, string — the
// shapes encoding/json produces for interface{} targets) into a Dynamic.
// encoding/json never produces a Go int for a JSON number, so an integral
// float64 is reported as KindInt, matching the original's
// is_number_integer distinction (§4.2) on a best effort basis.
func dynamicFromAny(v any) (Dynamic, error) {
	switch t := v.(type) {
	case bool:
		return DynamicBool(t), nil
	case string:
		return DynamicString(t), nil
	case float64:
		if t == float64(int64(t)) {
			return DynamicInt(int64(t)), nil
		}
		return DynamicFloat(t), nil
	case int64:
		return DynamicInt(t), nil
	case int:
		return DynamicInt(int64(t)), nil
	default:
		return Dynamic{}, fmt.Errorf("wire: cannot deserialize %T into Dynamic", v)
	}
}
