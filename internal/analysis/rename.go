package analysis

import (
	"github.com/mkanilsson/qbels/internal/model"
	"github.com/mkanilsson/qbels/internal/syntax"
)

// PlanRename collects an edit for every occurrence of the symbol
// within scope, all sharing newName as replacement. Unlike the
// pattern-based locator it walks the boundary subtree directly, so it
// cannot miss a syntactic position the definition patterns do not
// enumerate. Classification and scope resolution must have succeeded
// before calling.
func PlanRename(scope *syntax.Node, source []byte, occ *model.Occurrence, newName string) ([]model.Edit, error) {
	idents, err := collectOccurrences(scope, source, occ.Kind.Wrapper(), occ.Name)
	if err != nil {
		return nil, err
	}

	edits := make([]model.Edit, 0, len(idents))
	for _, ident := range idents {
		edits = append(edits, model.Edit{Range: ident.Range(), NewText: newName})
	}
	return edits, nil
}

// collectOccurrences recursively visits every child of n. A child of
// the target wrapping kind contributes its identifier child when the
// text matches, and is not descended into (its only named child is
// the identifier itself); every other child is recursed into. The
// walk never leaves the subtree it started from.
func collectOccurrences(n *syntax.Node, source []byte, wrapper syntax.Kind, name string) ([]*syntax.Node, error) {
	var idents []*syntax.Node

	for i := 0; i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)

		if child.Kind() == wrapper {
			ident := child.NamedChild(0)
			if ident == nil || ident.Kind() != syntax.KindIdent {
				return nil, ErrMalformedNode
			}
			if ident.Content(source) == name {
				idents = append(idents, ident)
			}
			continue
		}

		nested, err := collectOccurrences(child, source, wrapper, name)
		if err != nil {
			return nil, err
		}
		idents = append(idents, nested...)
	}

	return idents, nil
}
