package debug

import (
	"strings"
	"sync"
)

// Variable is one (name, Value) pair held by a VariableContainer.
type Variable struct {
	Name  string
	Value Value
}

// VariableContainer is an ordered name->Value map that is itself a Value
// (§"VariableContainer"): nested structures show up on the wire as a
// variablesReference that resolves back to one of these. Put with an
// existing name replaces the value in place, preserving its position;
// otherwise it appends, so Foreach always observes insertion order.
type VariableContainer struct {
	ID ID[VariableContainer]

	mu        sync.Mutex
	variables []Variable
	indices   map[string]int
}

// NewVariableContainer returns an empty container identified by id.
func NewVariableContainer(id ID[VariableContainer]) *VariableContainer {
	return &VariableContainer{
		ID:      id,
		indices: map[string]int{},
	}
}

// Put inserts or replaces the variable named v.Name.
func (c *VariableContainer) Put(v Variable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i, ok := c.indices[v.Name]; ok {
		c.variables[i].Value = v.Value
		return
	}
	c.indices[v.Name] = len(c.variables)
	c.variables = append(c.variables, v)
}

// PutValue is shorthand for Put(Variable{name, value}).
func (c *VariableContainer) PutValue(name string, value Value) {
	c.Put(Variable{Name: name, Value: value})
}

// Foreach calls cb for every variable starting at startIndex, in
// insertion order, holding the container's mutex for the duration so a
// concurrent Put can't tear an in-progress enumeration (§"Shared
// resources").
func (c *VariableContainer) Foreach(startIndex int, cb func(Variable)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := startIndex; i < len(c.variables); i++ {
		cb(c.variables[i])
	}
}

// Find calls cb and returns true for the first variable named name, or
// returns false without calling cb if none matches.
func (c *VariableContainer) Find(name string, cb func(Variable)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.indices[name]
	if !ok {
		return false
	}
	cb(c.variables[i])
	return true
}

// Len reports the current number of variables, for callers computing a
// variables request's totalCount.
func (c *VariableContainer) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.variables)
}

func (c *VariableContainer) Kind() Kind  { return KindVariableContainer }
func (c *VariableContainer) Get() any    { return nil }
func (c *VariableContainer) Set(any) bool { return false }

// String renders the container as "[name1: v1, name2: v2, ...]" by
// recursive Foreach (§"stringify").
func (c *VariableContainer) String() string {
	var b strings.Builder
	b.WriteByte('[')
	first := true
	c.Foreach(0, func(v Variable) {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(v.Name)
		b.WriteString(": ")
		if v.Value != nil {
			b.WriteString(v.Value.String())
		}
	})
	b.WriteByte(']')
	return b.String()
}

var _ Value = (*VariableContainer)(nil)
