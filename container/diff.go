package container

import (
	"fmt"

	"github.com/chazu/dexpatch/dalvik"
)

// ChangeKind classifies a method-level difference between two class sets.
type ChangeKind uint8

const (
	ChangeModified ChangeKind = iota
	ChangeAdded
	ChangeRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeModified:
		return "modified"
	case ChangeAdded:
		return "added"
	case ChangeRemoved:
		return "removed"
	default:
		return fmt.Sprintf("ChangeKind(%d)", uint8(k))
	}
}

// Change is one method that differs between two class sets.
type Change struct {
	Kind   ChangeKind
	Method string // method descriptor
	Before [32]byte
	After  [32]byte
}

func (c Change) String() string {
	return c.Kind.String() + " " + c.Method
}

// Diff lists the methods that were modified, added or removed going from
// before to after. Modified and added methods come in the order of after,
// removed methods follow in the order of before.
func Diff(before, after *dalvik.ClassSet) []Change {
	old := make(map[string][32]byte)
	for _, m := range before.Methods() {
		old[m.Ref.Descriptor()] = HashMethod(m)
	}

	var changes []Change
	seen := make(map[string]bool, len(old))
	for _, m := range after.Methods() {
		desc := m.Ref.Descriptor()
		seen[desc] = true
		h := HashMethod(m)
		prev, ok := old[desc]
		switch {
		case !ok:
			changes = append(changes, Change{Kind: ChangeAdded, Method: desc, After: h})
		case prev != h:
			changes = append(changes, Change{Kind: ChangeModified, Method: desc, Before: prev, After: h})
		}
	}
	for _, m := range before.Methods() {
		desc := m.Ref.Descriptor()
		if !seen[desc] {
			changes = append(changes, Change{Kind: ChangeRemoved, Method: desc, Before: old[desc]})
		}
	}
	return changes
}
