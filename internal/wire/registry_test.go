package wire

import "testing"

type simplePayload struct {
	Name   string `dap:"name"`
	Count  int    `dap:"count"`
	hidden string
}

type optionalPayload struct {
	Name string             `dap:"name"`
	Line OptionalField[int] `dap:"line"`
}

func TestSerializeOmitsUnexportedAndUntaggedFields(t *testing.T) {
	out, err := Serialize(simplePayload{Name: "x", Count: 3, hidden: "y"})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	m, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("want map[string]any, got %T", out)
	}
	if len(m) != 2 {
		t.Fatalf("want 2 fields, got %d: %v", len(m), m)
	}
	if m["name"] != "x" {
		t.Errorf("name = %v", m["name"])
	}
}

func TestOptionalFieldOmittedWhenUnset(t *testing.T) {
	out, err := Serialize(optionalPayload{Name: "x"})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	m := out.(map[string]any)
	if _, present := m["line"]; present {
		t.Errorf("unset optional field should be omitted, got %v", m["line"])
	}
}

func TestOptionalFieldEncodedWhenSet(t *testing.T) {
	out, err := Serialize(optionalPayload{Name: "x", Line: Some(5)})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	m := out.(map[string]any)
	if m["line"] != int64(5) {
		t.Errorf("line = %v", m["line"])
	}
}

func TestDeserializeRoundTripsOptionalField(t *testing.T) {
	var got optionalPayload
	err := Deserialize(map[string]any{"name": "x", "line": float64(7)}, &got)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	v, ok := got.Line.Get()
	if !ok || v != 7 {
		t.Errorf("Line = %v, %v", v, ok)
	}
}

func TestDeserializeLeavesOptionalFieldUnsetWhenAbsent(t *testing.T) {
	var got optionalPayload
	err := Deserialize(map[string]any{"name": "x"}, &got)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if _, ok := got.Line.Get(); ok {
		t.Errorf("Line should be unset when absent from the wire")
	}
}

func TestDeserializeRequiredFieldMissingIsError(t *testing.T) {
	var got simplePayload
	err := Deserialize(map[string]any{"count": float64(1)}, &got)
	if err == nil {
		t.Fatal("want error for missing required field, got nil")
	}
}

func TestFieldNamesSorted(t *testing.T) {
	names, err := FieldNames[optionalPayload]()
	if err != nil {
		t.Fatalf("FieldNames: %v", err)
	}
	want := []string{"line", "name"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}
