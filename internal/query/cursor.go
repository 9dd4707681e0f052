package query

import "github.com/mkanilsson/qbels/internal/syntax"

// Capture is one captured node of a match.
type Capture struct {
	Name string
	Node *syntax.Node
}

// Match is one pattern occurrence. Matches arrive in depth-first
// pre-order of the pattern's root node, so they are position-ordered.
type Match struct {
	PatternIndex int
	Captures     []Capture

	predicates []predicate
}

// Cursor executes queries. A cursor may be reused across Exec calls
// but not shared between goroutines.
type Cursor struct {
	startByte  uint32
	endByte    uint32
	restricted bool

	matches []*Match
	next    int
}

// NewCursor returns a fresh cursor with no byte-range restriction.
func NewCursor() *Cursor {
	return &Cursor{}
}

// SetByteRange restricts subsequent Exec calls to nodes fully
// contained in the half-open byte range [start, end).
func (c *Cursor) SetByteRange(start, end uint32) {
	c.startByte = start
	c.endByte = end
	c.restricted = true
}

func (c *Cursor) contains(n *syntax.Node) bool {
	return !c.restricted || (n.StartByte() >= c.startByte && n.EndByte() <= c.endByte)
}

func (c *Cursor) intersects(n *syntax.Node) bool {
	return !c.restricted || (n.EndByte() > c.startByte && n.StartByte() < c.endByte)
}

// Exec matches every pattern of q against every node in the subtree
// rooted at node, honoring the byte-range restriction. Results are
// consumed with NextMatch.
func (c *Cursor) Exec(q *Query, node *syntax.Node) {
	c.matches = c.matches[:0]
	c.next = 0

	stack := []*syntax.Node{node}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !c.intersects(n) {
			continue
		}
		if c.contains(n) {
			for i, pat := range q.patterns {
				for _, caps := range matchStep(pat.root, n) {
					c.matches = append(c.matches, &Match{
						PatternIndex: i,
						Captures:     caps,
						predicates:   pat.predicates,
					})
				}
			}
		}

		for i := n.NamedChildCount() - 1; i >= 0; i-- {
			stack = append(stack, n.NamedChild(i))
		}
	}
}

// NextMatch returns the next match, or false when exhausted.
func (c *Cursor) NextMatch() (*Match, bool) {
	if c.next >= len(c.matches) {
		return nil, false
	}
	m := c.matches[c.next]
	c.next++
	return m, true
}

// FilterPredicates evaluates a match's #eq? predicates against the
// source text. A match that fails a predicate is returned with its
// captures stripped.
func (c *Cursor) FilterPredicates(m *Match, source []byte) *Match {
	for _, pred := range m.predicates {
		holds := false
		for _, capture := range m.Captures {
			if capture.Name == pred.capture {
				holds = capture.Node.Content(source) == pred.value
				break
			}
		}
		if !holds {
			return &Match{PatternIndex: m.PatternIndex}
		}
	}
	return m
}

// matchStep matches a single step against a node and returns every
// capture-set the step can produce there. Field-constrained child
// steps must match the node's child in that field; unconstrained
// child steps may bind any later named child, and each distinct
// binding yields its own capture-set.
func matchStep(st *step, n *syntax.Node) [][]Capture {
	if string(n.Kind()) != st.kind {
		return nil
	}

	sets := matchChildren(st.children, n, 0)
	if st.capture == "" {
		return sets
	}

	out := make([][]Capture, 0, len(sets))
	for _, set := range sets {
		out = append(out, append([]Capture{{Name: st.capture, Node: n}}, set...))
	}
	return out
}

// matchChildren binds child steps to named children of n, in order,
// starting no earlier than from. It returns one capture-set per
// distinct binding; a single empty set when there is nothing left to
// bind, nil when binding is impossible.
func matchChildren(children []*step, n *syntax.Node, from int) [][]Capture {
	if len(children) == 0 {
		return [][]Capture{nil}
	}

	head, rest := children[0], children[1:]
	var out [][]Capture

	if head.field != "" {
		target := n.ChildByFieldName(head.field)
		if target == nil {
			return nil
		}
		for _, headSet := range matchStep(head, target) {
			for _, restSet := range matchChildren(rest, n, from) {
				out = append(out, concatCaptures(headSet, restSet))
			}
		}
		return out
	}

	for i := from; i < n.NamedChildCount(); i++ {
		for _, headSet := range matchStep(head, n.NamedChild(i)) {
			for _, restSet := range matchChildren(rest, n, i+1) {
				out = append(out, concatCaptures(headSet, restSet))
			}
		}
	}
	return out
}

func concatCaptures(a, b []Capture) []Capture {
	if len(b) == 0 {
		return a
	}
	out := make([]Capture, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
