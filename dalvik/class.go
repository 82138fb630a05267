package dalvik

import (
	"fmt"
	"iter"
	"slices"
)

// Class is a class definition with its methods.
type Class struct {
	Type        string // type descriptor, e.g. "Lcom/example/Foo;"
	AccessFlags AccessFlags
	SuperClass  string
	Interfaces  []string
	SourceFile  string
	Methods     []*Method
}

// Method returns the first method with the given name, and if params is
// non-nil, the given parameter types.
func (c *Class) Method(name string, params ...string) (*Method, bool) {
	for _, m := range c.Methods {
		if m.Ref.Name != name {
			continue
		}
		if params != nil && !slices.Equal(m.Ref.Parameters, params) {
			continue
		}
		return m, true
	}
	return nil, false
}

// AddMethod appends m, setting its defining class to c.
func (c *Class) AddMethod(m *Method) {
	m.Ref.DefiningClass = c.Type
	c.Methods = append(c.Methods, m)
}

// Clone returns a deep copy of the class.
func (c *Class) Clone() *Class {
	out := *c
	out.Interfaces = slices.Clone(c.Interfaces)
	out.Methods = make([]*Method, len(c.Methods))
	for i, m := range c.Methods {
		out.Methods[i] = m.Clone()
	}
	return &out
}

// ---------------------------------------------------------------------------
// ClassSet
// ---------------------------------------------------------------------------

// ClassSet is the decoded program a patch run operates on. Iteration order
// is insertion order, so fingerprint resolution is deterministic.
type ClassSet struct {
	classes []*Class
	byType  map[string]*Class
}

// NewClassSet creates a set from the given classes.
// Panics on duplicate type descriptors.
func NewClassSet(classes ...*Class) *ClassSet {
	cs := &ClassSet{byType: make(map[string]*Class, len(classes))}
	for _, c := range classes {
		if err := cs.Add(c); err != nil {
			panic(err)
		}
	}
	return cs
}

// Add appends a class. It fails if a class with the same type exists.
func (cs *ClassSet) Add(c *Class) error {
	if cs.byType == nil {
		cs.byType = make(map[string]*Class)
	}
	if _, dup := cs.byType[c.Type]; dup {
		return fmt.Errorf("duplicate class %s", c.Type)
	}
	cs.classes = append(cs.classes, c)
	cs.byType[c.Type] = c
	return nil
}

// Class looks up a class by type descriptor.
func (cs *ClassSet) Class(typ string) (*Class, bool) {
	c, ok := cs.byType[typ]
	return c, ok
}

// Classes returns the classes in insertion order.
func (cs *ClassSet) Classes() []*Class {
	return slices.Clone(cs.classes)
}

// Len returns the number of classes.
func (cs *ClassSet) Len() int {
	return len(cs.classes)
}

// Methods iterates over every method of every class in order.
func (cs *ClassSet) Methods() iter.Seq2[*Class, *Method] {
	return func(yield func(*Class, *Method) bool) {
		for _, c := range cs.classes {
			for _, m := range c.Methods {
				if !yield(c, m) {
					return
				}
			}
		}
	}
}

// LookupMethod finds the method a reference points at.
func (cs *ClassSet) LookupMethod(ref MethodRef) (*Method, bool) {
	c, ok := cs.byType[ref.DefiningClass]
	if !ok {
		return nil, false
	}
	for _, m := range c.Methods {
		if m.Ref.Equal(ref) {
			return m, true
		}
	}
	return nil, false
}

// Clone returns a deep copy whose methods can be edited independently.
func (cs *ClassSet) Clone() *ClassSet {
	out := &ClassSet{
		classes: make([]*Class, len(cs.classes)),
		byType:  make(map[string]*Class, len(cs.classes)),
	}
	for i, c := range cs.classes {
		cc := c.Clone()
		out.classes[i] = cc
		out.byType[cc.Type] = cc
	}
	return out
}

// Restore replaces the contents of cs with those of snapshot. Pointers to
// classes and methods obtained from cs before the call are stale afterwards.
func (cs *ClassSet) Restore(snapshot *ClassSet) {
	cs.classes = snapshot.classes
	cs.byType = snapshot.byType
}
