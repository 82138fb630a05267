package patch

import (
	"fmt"
	"slices"

	"github.com/tliron/commonlog"

	"github.com/chazu/dexpatch/dalvik"
	"github.com/chazu/dexpatch/smali"
)

var log = commonlog.GetLogger("dexpatch.patch")

// ---------------------------------------------------------------------------
// Method edits
// ---------------------------------------------------------------------------

// InsertAt splices block into the body of m so that block[0] ends up at
// index. Instructions at index and after shift right by len(block); those
// before index keep their positions. Nothing changes when InsertAt fails.
func InsertAt(m *dalvik.Method, index int, block []dalvik.Instruction) error {
	impl, err := m.Body()
	if err != nil {
		return err
	}
	if index < 0 || index > impl.Len() {
		return &dalvik.OutOfBoundsError{Method: m.Ref, Index: index, Len: impl.Len()}
	}
	impl.Splice(index, 0, block)
	log.Debugf("inserted %d instructions at %d in %s", len(block), index, m.Ref.Descriptor())
	return nil
}

// InsertText assembles smali text against m and inserts the result at index.
func InsertText(m *dalvik.Method, index int, src string) error {
	block, err := smali.Assemble(src, m)
	if err != nil {
		return fmt.Errorf("assemble for %s: %w", m.Ref.Descriptor(), err)
	}
	return InsertAt(m, index, block)
}

// SetAccessFlags replaces the access flags of m. Modifier combinations are
// not validated.
func SetAccessFlags(m *dalvik.Method, flags dalvik.AccessFlags) {
	if m.AccessFlags != flags {
		log.Debugf("access flags of %s: %s -> %s", m.Ref.Descriptor(), m.AccessFlags, flags)
	}
	m.AccessFlags = flags
}

// RemoveAt deletes count instructions starting at index. It refuses to
// remove a labelled instruction while a remaining instruction still
// branches to that label.
func RemoveAt(m *dalvik.Method, index, count int) error {
	impl, err := m.Body()
	if err != nil {
		return err
	}
	if index < 0 || index > impl.Len() || count < 0 || count > impl.Len()-index {
		return &dalvik.OutOfBoundsError{Method: m.Ref, Index: index, Len: impl.Len()}
	}

	var removed []*dalvik.Label
	for _, ins := range impl.Instructions[index : index+count] {
		removed = append(removed, ins.Labels...)
	}
	if len(removed) > 0 {
		for i, ins := range impl.Instructions {
			if i >= index && i < index+count {
				continue
			}
			if ins.Target != nil && slices.Contains(removed, ins.Target) {
				return fmt.Errorf("remove %d instructions at %d in %s: label :%s is still targeted from index %d",
					count, index, m.Ref.Descriptor(), ins.Target.Name, i)
			}
		}
	}

	impl.Splice(index, count, nil)
	log.Debugf("removed %d instructions at %d in %s", count, index, m.Ref.Descriptor())
	return nil
}

// ReplaceAt replaces the instruction at index with block. Labels on the
// replaced instruction move to block[0], so branches into it now reach the
// replacement. An empty block behaves like RemoveAt(m, index, 1).
func ReplaceAt(m *dalvik.Method, index int, block []dalvik.Instruction) error {
	if len(block) == 0 {
		return RemoveAt(m, index, 1)
	}
	impl, err := m.Body()
	if err != nil {
		return err
	}
	if index < 0 || index >= impl.Len() {
		return &dalvik.OutOfBoundsError{Method: m.Ref, Index: index, Len: impl.Len()}
	}

	block = slices.Clone(block)
	if old := impl.At(index).Labels; len(old) > 0 {
		first := block[0]
		first.Labels = append(slices.Clone(old), first.Labels...)
		block[0] = first
	}
	impl.Splice(index, 1, block)
	log.Debugf("replaced instruction %d in %s with %d instructions", index, m.Ref.Descriptor(), len(block))
	return nil
}
