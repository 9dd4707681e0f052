// Package syntax provides a lexer and tolerant parser for the QBE
// intermediate representation, producing immutable syntax trees with
// tree-sitter style node access.
package syntax

// Kind tags a syntax tree node. The vocabulary follows the
// tree-sitter-qbe grammar so that query patterns written against that
// grammar keep working.
type Kind string

const (
	KindModule        Kind = "MODULE"
	KindFuncDef       Kind = "FUNCDEF"
	KindFuncDefParams Kind = "FUNCDEF_PARAMS"
	KindFuncDefParam  Kind = "FUNCDEF_PARAM"
	KindDataDef       Kind = "DATADEF"
	KindTypeDef       Kind = "TYPEDEF"
	KindTypeDefBody   Kind = "TYPEDEF_BODY"
	KindBlock         Kind = "BLOCK"
	KindInst          Kind = "INST"
	KindLocal         Kind = "LOCAL"
	KindGlobal        Kind = "GLOBAL"
	KindLabel         Kind = "LABEL"
	KindAggregate     Kind = "AGGREGATE"
	KindIdent         Kind = "IDENT"
)

// Point is a zero-based (row, column) position. Columns count bytes
// within the line.
type Point struct {
	Row    uint32
	Column uint32
}

// Before reports whether p sorts strictly before o.
func (p Point) Before(o Point) bool {
	if p.Row != o.Row {
		return p.Row < o.Row
	}
	return p.Column < o.Column
}

// Range is a half-open [Start, End) span, carried both as byte
// offsets and as points.
type Range struct {
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
}

// Node is a single node of a parsed tree. Nodes are immutable and
// remain valid only as long as the snapshot they were parsed from.
type Node struct {
	kind     Kind
	field    string
	parent   *Node
	children []*Node

	startByte  uint32
	endByte    uint32
	startPoint Point
	endPoint   Point
}

// Kind returns the node's kind tag.
func (n *Node) Kind() Kind { return n.kind }

// FieldName returns the grammar field this node occupies in its
// parent ("name", "params", "assignment", "label"), or "".
func (n *Node) FieldName() string { return n.field }

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// NamedChildCount returns the number of named children.
func (n *Node) NamedChildCount() int { return len(n.children) }

// NamedChild returns the i-th named child, or nil if out of range.
func (n *Node) NamedChild(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// ChildByFieldName returns the first child occupying the given
// grammar field, or nil.
func (n *Node) ChildByFieldName(field string) *Node {
	for _, c := range n.children {
		if c.field == field {
			return c
		}
	}
	return nil
}

func (n *Node) StartByte() uint32 { return n.startByte }
func (n *Node) EndByte() uint32   { return n.endByte }
func (n *Node) StartPoint() Point { return n.startPoint }
func (n *Node) EndPoint() Point   { return n.endPoint }

// Range returns the node's full span.
func (n *Node) Range() Range {
	return Range{
		StartByte:  n.startByte,
		EndByte:    n.endByte,
		StartPoint: n.startPoint,
		EndPoint:   n.endPoint,
	}
}

// Content returns the node's source text.
func (n *Node) Content(source []byte) string {
	return string(source[n.startByte:n.endByte])
}

// ContainsPoint reports whether p lies within the node's half-open
// point range.
func (n *Node) ContainsPoint(p Point) bool {
	return !p.Before(n.startPoint) && p.Before(n.endPoint)
}

// NamedDescendantForPoint returns the smallest named node containing
// p, or the node itself when no child contains it.
func (n *Node) NamedDescendantForPoint(p Point) *Node {
	cur := n
	for {
		next := cur
		for _, c := range cur.children {
			if c.ContainsPoint(p) {
				next = c
				break
			}
		}
		if next == cur {
			return cur
		}
		cur = next
	}
}

func (n *Node) appendChild(c *Node) {
	c.parent = n
	n.children = append(n.children, c)
}

// Tree is one parse result. Trees are never mutated after Parse
// returns; an edit produces a whole new tree.
type Tree struct {
	root *Node
}

// Root returns the MODULE node spanning the whole document.
func (t *Tree) Root() *Node { return t.root }
