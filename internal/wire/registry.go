// Package wire implements the reflection-driven (de)serialization layer
// described by the DAP TypeRegistry / Serializer / Deserializer / Dynamic
// components: every request, response and event payload is a plain Go
// struct, and this package walks it by reflection to produce or consume a
// generic JSON value tree (map[string]any / []any / scalars), honoring two
// policies the rest of the protocol layer depends on:
//
//   - a missing field on the wire is only an error if the corresponding Go
//     field is not an OptionalField[T] (§4.2 "missing-field policy");
//   - an OptionalField[T] that was never set is omitted from the output
//     entirely, not encoded as null (§4.2 "omit-field policy").
//
// In a language with compiler-level reflection this is generated; in Go,
// reflect.Type plays the same role the original's hand-written TypeInfo
// descriptors did, and the descriptor cache below (keyed by reflect.Type)
// is the direct analogue of TypeOf<T>::type()'s process-wide singleton.
package wire

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// field describes one struct field as seen on the wire: its JSON name and
// where to find it via reflection. This is the Go analogue of dap::Field
// (name, offset, type) — reflect.StructField.Index stands in for the
// byte offset.
type field struct {
	name  string
	index int
}

// descriptor is the cached, reflection-derived shape of a struct type.
// Building it is the one-time cost; every subsequent (de)serialize of that
// type just walks the cached field list.
type descriptor struct {
	fields []field
}

var (
	descriptorsMu sync.RWMutex
	descriptors   = map[reflect.Type]*descriptor{}
)

// describe returns the cached descriptor for t, building it on first use by
// scanning exported fields with a `dap:"name"` tag. A field tagged
// `dap:"-"` is excluded from the wire entirely.
func describe(t reflect.Type) (*descriptor, error) {
	descriptorsMu.RLock()
	d, ok := descriptors[t]
	descriptorsMu.RUnlock()
	if ok {
		return d, nil
	}

	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("wire: %s is not a struct", t)
	}

	d = &descriptor{}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" {
			continue // unexported
		}
		tag, has := sf.Tag.Lookup("dap")
		if !has || tag == "-" {
			continue
		}
		d.fields = append(d.fields, field{name: tag, index: i})
	}

	descriptorsMu.Lock()
	descriptors[t] = d
	descriptorsMu.Unlock()
	return d, nil
}

// Register pre-warms the descriptor cache for T. It reports an error only
// when T is not a struct; `dap:` tags are taken as written and are not
// validated.
func Register[T any]() error {
	var zero T
	_, err := describe(reflect.TypeOf(zero))
	return err
}

// Serialize walks v (a struct, or pointer to one) by reflection and returns
// the equivalent generic JSON tree: nested map[string]any for structs,
// []any for slices/arrays, and bool/int64/float64/string for scalars.
func Serialize(v any) (any, error) {
	return serializeValue(reflect.ValueOf(v))
}

func serializeValue(rv reflect.Value) (any, error) {
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		if d, ok := rv.Interface().(Dynamic); ok {
			return d.toAny()
		}
		return serializeStruct(rv)
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			v, err := serializeValue(rv.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			v, err := serializeValue(iter.Value())
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(iter.Key().Interface())] = v
		}
		return out, nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return serializeValue(rv.Elem())
	default:
		return nil, fmt.Errorf("wire: cannot serialize kind %s", rv.Kind())
	}
}

func serializeStruct(rv reflect.Value) (any, error) {
	d, err := describe(rv.Type())
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(d.fields))
	for _, f := range d.fields {
		fv := rv.Field(f.index)

		if opt, ok := asOptional(fv); ok {
			if !opt.FieldByName("Set").Bool() {
				continue // omit-field policy: absent, not null.
			}
			val, err := serializeValue(opt.FieldByName("Value"))
			if err != nil {
				return nil, fmt.Errorf("wire: field %q: %w", f.name, err)
			}
			out[f.name] = val
			continue
		}

		val, err := serializeValue(fv)
		if err != nil {
			return nil, fmt.Errorf("wire: field %q: %w", f.name, err)
		}
		out[f.name] = val
	}
	return out, nil
}

// Deserialize walks the generic JSON tree data (as produced by
// encoding/json.Unmarshal into an interface{}) into ptr, which must be a
// non-nil pointer to a struct.
func Deserialize(data any, ptr any) error {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("wire: Deserialize needs a non-nil pointer, got %T", ptr)
	}
	return deserializeValue(data, rv.Elem(), true)
}

// deserializeValue assigns data into rv. present is false when the caller
// is invoking this for a field that was entirely absent from the wire
// object — the "null deserializer" case from §4.2, which must still
// succeed for OptionalField[T] destinations and fail for everything else.
func deserializeValue(data any, rv reflect.Value, present bool) error {
	if opt, ok := asOptionalAddr(rv); ok {
		if !present || data == nil {
			return nil // leave Set=false; absence is not an error.
		}
		if err := deserializeValue(data, opt.FieldByName("Value"), true); err != nil {
			return err
		}
		opt.FieldByName("Set").SetBool(true)
		return nil
	}

	if !present {
		return fmt.Errorf("wire: required field missing")
	}

	switch rv.Kind() {
	case reflect.Interface:
		if data == nil {
			return nil
		}
		rv.Set(reflect.ValueOf(data))
		return nil

	case reflect.Ptr:
		if data == nil {
			return nil
		}
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return deserializeValue(data, rv.Elem(), true)

	case reflect.Struct:
		if rv.Type() == reflect.TypeOf(Dynamic{}) {
			d, err := dynamicFromAny(data)
			if err != nil {
				return err
			}
			rv.Set(reflect.ValueOf(d))
			return nil
		}
		m, ok := data.(map[string]any)
		if !ok {
			return fmt.Errorf("wire: expected object, got %T", data)
		}
		return deserializeStruct(m, rv)

	case reflect.Slice:
		s, ok := data.([]any)
		if !ok {
			return fmt.Errorf("wire: expected array, got %T", data)
		}
		out := reflect.MakeSlice(rv.Type(), len(s), len(s))
		for i := range s {
			if err := deserializeValue(s[i], out.Index(i), true); err != nil {
				return fmt.Errorf("wire: element %d: %w", i, err)
			}
		}
		rv.Set(out)
		return nil

	case reflect.Map:
		m, ok := data.(map[string]any)
		if !ok {
			return fmt.Errorf("wire: expected object, got %T", data)
		}
		out := reflect.MakeMapWithSize(rv.Type(), len(m))
		for k, v := range m {
			ev := reflect.New(rv.Type().Elem()).Elem()
			if err := deserializeValue(v, ev, true); err != nil {
				return fmt.Errorf("wire: key %q: %w", k, err)
			}
			out.SetMapIndex(reflect.ValueOf(k), ev)
		}
		rv.Set(out)
		return nil

	case reflect.Bool:
		b, ok := data.(bool)
		if !ok {
			return fmt.Errorf("wire: expected bool, got %T", data)
		}
		rv.SetBool(b)
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := data.(float64)
		if !ok {
			return fmt.Errorf("wire: expected integer, got %T", data)
		}
		rv.SetInt(int64(n))
		return nil

	case reflect.Float32, reflect.Float64:
		n, ok := data.(float64)
		if !ok {
			return fmt.Errorf("wire: expected number, got %T", data)
		}
		rv.SetFloat(n)
		return nil

	case reflect.String:
		s, ok := data.(string)
		if !ok {
			return fmt.Errorf("wire: expected string, got %T", data)
		}
		rv.SetString(s)
		return nil

	default:
		return fmt.Errorf("wire: cannot deserialize into kind %s", rv.Kind())
	}
}

func deserializeStruct(m map[string]any, rv reflect.Value) error {
	d, err := describe(rv.Type())
	if err != nil {
		return err
	}
	for _, f := range d.fields {
		val, present := m[f.name]
		if err := deserializeValue(val, rv.Field(f.index), present); err != nil {
			return fmt.Errorf("field %q: %w", f.name, err)
		}
	}
	return nil
}

// asOptional reports whether rv (read-only) holds an OptionalField[T], and
// if so returns it as an addressable-or-not reflect.Value for read access.
func asOptional(rv reflect.Value) (reflect.Value, bool) {
	if !rv.CanInterface() {
		return reflect.Value{}, false
	}
	if _, ok := rv.Interface().(isOptionalField); !ok {
		return reflect.Value{}, false
	}
	return rv, true
}

// asOptionalAddr is the write-side counterpart of asOptional: it requires
// rv to be addressable, since deserialization needs to set Value and Set.
func asOptionalAddr(rv reflect.Value) (reflect.Value, bool) {
	if !rv.CanAddr() {
		return asOptional(rv)
	}
	if _, ok := rv.Addr().Interface().(isOptionalField); !ok {
		return reflect.Value{}, false
	}
	return rv, true
}

// FieldNames returns the registered wire field names for T, sorted, for use
// in tests that assert a payload's shape without hand-maintaining a list.
func FieldNames[T any]() ([]string, error) {
	var zero T
	d, err := describe(reflect.TypeOf(zero))
	if err != nil {
		return nil, err
	}
	names := make([]string, len(d.fields))
	for i, f := range d.fields {
		names[i] = f.name
	}
	sort.Strings(names)
	return names, nil
}
