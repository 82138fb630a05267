package fingerprint

import (
	"github.com/chazu/dexpatch/dalvik"
)

// Captures holds operand values a predicate recorded by name.
type Captures map[string]int

// Window is the view a Predicate gets of one candidate position: the
// instruction at Index and the lookahead instructions after it. The window
// never extends past the end of the sequence.
type Window struct {
	seq   []dalvik.Instruction
	start int
	size  int
	caps  Captures
}

// Index returns the position of the first instruction of the window.
func (w *Window) Index() int { return w.start }

// Len returns the number of instructions in the window.
func (w *Window) Len() int { return w.size }

// At returns the k-th instruction of the window. Positions outside the
// window report false.
func (w *Window) At(k int) (dalvik.Instruction, bool) {
	if k < 0 || k >= w.size {
		return dalvik.Instruction{}, false
	}
	return w.seq[w.start+k], true
}

// First returns the candidate instruction.
func (w *Window) First() dalvik.Instruction {
	return w.seq[w.start]
}

// Last returns the instruction lookahead positions after the candidate.
func (w *Window) Last() dalvik.Instruction {
	return w.seq[w.start+w.size-1]
}

// Capture records an operand value under name. Captures of a candidate
// that ends up not matching are discarded.
func (w *Window) Capture(name string, value int) {
	if w.caps == nil {
		w.caps = make(Captures)
	}
	w.caps[name] = value
}

// Predicate decides whether a window matches.
type Predicate func(w *Window) bool

// Match is the result of a successful search.
type Match struct {
	Index    int
	Captures Captures
}

// Register returns a captured register by name.
func (m Match) Register(name string) (uint16, bool) {
	v, ok := m.Captures[name]
	if !ok || v < 0 || v > 0xffff {
		return 0, false
	}
	return uint16(v), true
}

// Find returns the first position i such that pred holds for the window
// seq[i..i+lookahead]. Candidates whose window would run past the end of
// seq do not match. A negative lookahead matches nothing.
func Find(seq []dalvik.Instruction, pred Predicate, lookahead int) (Match, bool) {
	return findFrom(seq, pred, lookahead, 0)
}

// FindAll returns every non-overlapping match in order. Patches rely on
// Find; FindAll exists to diagnose ambiguous patterns.
func FindAll(seq []dalvik.Instruction, pred Predicate, lookahead int) []Match {
	var out []Match
	for from := 0; ; {
		m, ok := findFrom(seq, pred, lookahead, from)
		if !ok {
			return out
		}
		out = append(out, m)
		from = m.Index + lookahead + 1
	}
}

func findFrom(seq []dalvik.Instruction, pred Predicate, lookahead, from int) (Match, bool) {
	if lookahead < 0 || pred == nil {
		return Match{}, false
	}
	for i := from; i+lookahead < len(seq); i++ {
		w := &Window{seq: seq, start: i, size: lookahead + 1}
		if pred(w) {
			return Match{Index: i, Captures: w.caps}, true
		}
	}
	return Match{}, false
}
