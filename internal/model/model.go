// Package model defines the shared data types of the symbol engine.
package model

import "github.com/mkanilsson/qbels/internal/syntax"

// SymbolKind classifies the four named entities of the QBE IR. Each
// kind corresponds 1:1 to a wrapping node kind in the syntax tree.
type SymbolKind string

const (
	// Local is a function-scoped virtual register (%x).
	Local SymbolKind = "local"
	// Global is a program-wide function or data symbol ($f).
	Global SymbolKind = "global"
	// Label is a function-scoped basic-block name (@start).
	Label SymbolKind = "label"
	// Aggregate is a program-wide named structured type (:pair).
	Aggregate SymbolKind = "aggregate"
)

// Wrapper returns the syntax node kind that wraps this symbol kind's
// identifier.
func (k SymbolKind) Wrapper() syntax.Kind {
	switch k {
	case Local:
		return syntax.KindLocal
	case Global:
		return syntax.KindGlobal
	case Label:
		return syntax.KindLabel
	default:
		return syntax.KindAggregate
	}
}

// FunctionScoped reports whether the kind's names are visible only
// inside one function body. Global and Aggregate names occupy a flat,
// whole-document namespace.
func (k SymbolKind) FunctionScoped() bool {
	return k == Local || k == Label
}

// KindForWrapper maps a wrapping node kind back to its symbol kind.
func KindForWrapper(kind syntax.Kind) (SymbolKind, bool) {
	switch kind {
	case syntax.KindLocal:
		return Local, true
	case syntax.KindGlobal:
		return Global, true
	case syntax.KindLabel:
		return Label, true
	case syntax.KindAggregate:
		return Aggregate, true
	default:
		return "", false
	}
}

// Occurrence is one classified appearance of a symbol's identifier.
// It is derived per request and must not outlive the snapshot its
// node belongs to.
type Occurrence struct {
	Kind  SymbolKind
	Name  string
	Ident *syntax.Node
}

// Range returns the identifier's span, excluding the sigil.
func (o *Occurrence) Range() syntax.Range {
	return o.Ident.Range()
}

// Edit is a single replacement of a range with new text. All edits of
// one rename plan share the same NewText.
type Edit struct {
	Range   syntax.Range
	NewText string
}
