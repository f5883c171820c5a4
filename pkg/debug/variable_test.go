package debug

import "testing"

func TestVariableContainerPutAppendsInOrder(t *testing.T) {
	c := NewVariableContainer(1)
	c.PutValue("a", NewConstant(int32(1)))
	c.PutValue("b", NewConstant(int32(2)))

	var names []string
	c.Foreach(0, func(v Variable) { names = append(names, v.Name) })
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("names = %v", names)
	}
}

func TestVariableContainerPutReplacesInPlace(t *testing.T) {
	c := NewVariableContainer(1)
	c.PutValue("a", NewConstant(int32(1)))
	c.PutValue("b", NewConstant(int32(2)))
	c.PutValue("a", NewConstant(int32(99)))

	var names []string
	var values []any
	c.Foreach(0, func(v Variable) {
		names = append(names, v.Name)
		values = append(values, v.Value.Get())
	})
	if len(names) != 2 {
		t.Fatalf("replacing an existing name should not grow the container, got %v", names)
	}
	if names[0] != "a" || values[0] != int32(99) {
		t.Fatalf("a's position/value after replace = %v/%v", names[0], values[0])
	}
}

func TestVariableContainerForeachStartIndex(t *testing.T) {
	c := NewVariableContainer(1)
	c.PutValue("a", NewConstant(int32(1)))
	c.PutValue("b", NewConstant(int32(2)))
	c.PutValue("c", NewConstant(int32(3)))

	var names []string
	c.Foreach(1, func(v Variable) { names = append(names, v.Name) })
	if len(names) != 2 || names[0] != "b" || names[1] != "c" {
		t.Fatalf("names = %v", names)
	}
}

func TestVariableContainerFindHitAndMiss(t *testing.T) {
	c := NewVariableContainer(1)
	c.PutValue("a", NewConstant(int32(5)))

	var found Variable
	ok := c.Find("a", func(v Variable) { found = v })
	if !ok || found.Value.Get() != int32(5) {
		t.Fatalf("Find(a) = %v, %v", found, ok)
	}

	if c.Find("missing", func(Variable) { t.Fatal("cb should not be called for a miss") }) {
		t.Fatal("Find(missing) should return false")
	}
}

func TestVariableContainerLen(t *testing.T) {
	c := NewVariableContainer(1)
	if c.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", c.Len())
	}
	c.PutValue("a", NewConstant(int32(1)))
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
}

func TestVariableContainerStringRendersNested(t *testing.T) {
	inner := NewVariableContainer(2)
	inner.PutValue("x", NewConstant(int32(1)))

	outer := NewVariableContainer(1)
	outer.PutValue("child", inner)

	want := "[child: [x: 1]]"
	if got := outer.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestVariableContainerIsAValue(t *testing.T) {
	c := NewVariableContainer(1)
	if c.Kind() != KindVariableContainer {
		t.Errorf("Kind() = %v", c.Kind())
	}
	if c.Get() != nil {
		t.Errorf("Get() = %v, want nil", c.Get())
	}
	if c.Set(1) {
		t.Error("Set should always report false for a VariableContainer")
	}
}
