// Package analysis implements the symbol-resolution core: classifying
// the identifier under a cursor, resolving its visibility boundary,
// locating definition and reference occurrences and planning renames.
// Everything here is pure computation over one immutable snapshot.
package analysis

import (
	"errors"

	"github.com/mkanilsson/qbels/internal/model"
	"github.com/mkanilsson/qbels/internal/syntax"
)

var (
	// ErrNoEnclosingScope reports a local or label identifier with no
	// ancestor function definition, which only a malformed document
	// can produce.
	ErrNoEnclosingScope = errors.New("local or label outside any function definition")

	// ErrMalformedNode reports a wrapping node without its identifier
	// child. That violates the parser contract, so the request fails
	// rather than recover.
	ErrMalformedNode = errors.New("wrapping node has no identifier child")
)

// At classifies the smallest named node covering pos. It returns nil
// without error when the cursor is not on an identifier; every
// operation treats that as an empty result.
func At(root *syntax.Node, source []byte, pos syntax.Point) (*model.Occurrence, error) {
	node := root.NamedDescendantForPoint(pos)

	if kind, ok := model.KindForWrapper(node.Kind()); ok {
		ident := node.NamedChild(0)
		if ident == nil || ident.Kind() != syntax.KindIdent {
			return nil, ErrMalformedNode
		}
		return &model.Occurrence{Kind: kind, Name: ident.Content(source), Ident: ident}, nil
	}

	if node.Kind() == syntax.KindIdent {
		if parent := node.Parent(); parent != nil {
			if kind, ok := model.KindForWrapper(parent.Kind()); ok {
				return &model.Occurrence{Kind: kind, Name: node.Content(source), Ident: node}, nil
			}
		}
	}

	return nil, nil
}

// ScopeOf resolves the visibility boundary of an occurrence: the
// nearest enclosing function definition for locals and labels, the
// document root for globals and aggregates.
func ScopeOf(occ *model.Occurrence, root *syntax.Node) (*syntax.Node, error) {
	if !occ.Kind.FunctionScoped() {
		return root, nil
	}

	funcdef := firstAncestor(occ.Ident, func(n *syntax.Node) bool {
		return n.Kind() == syntax.KindFuncDef
	})
	if funcdef == nil {
		return nil, ErrNoEnclosingScope
	}
	return funcdef, nil
}

// firstAncestor walks strictly upward from n and returns the first
// ancestor satisfying pred, or nil when the root is reached first.
func firstAncestor(n *syntax.Node, pred func(*syntax.Node) bool) *syntax.Node {
	for n = n.Parent(); n != nil; n = n.Parent() {
		if pred(n) {
			return n
		}
	}
	return nil
}
