package analysis

import (
	"fmt"
	"sort"

	"github.com/mkanilsson/qbels/internal/model"
	"github.com/mkanilsson/qbels/internal/query"
	"github.com/mkanilsson/qbels/internal/syntax"
)

// Definition site patterns, one set per symbol kind. Each pattern
// enumerates only syntactic positions where a name of that kind is
// defined; the name is injected as an #eq? predicate.
const (
	localDefQuery = `
(INST assignment: (LOCAL name: (IDENT) @name (#eq? @name %[1]q)) @local)
(FUNCDEF params: (FUNCDEF_PARAMS (FUNCDEF_PARAM name: (LOCAL name: (IDENT) @name (#eq? @name %[1]q)) @local)))
`
	labelDefQuery = `(BLOCK label: (LABEL name: (IDENT) @name (#eq? @name %[1]q)) @label)`

	globalDefQuery = `
(FUNCDEF name: (GLOBAL name: (IDENT) @name (#eq? @name %[1]q)) @global)
(DATADEF name: (GLOBAL name: (IDENT) @name (#eq? @name %[1]q)) @global)
`
	aggregateDefQuery = `(TYPEDEF (AGGREGATE name: (IDENT) @name (#eq? @name %[1]q)) @aggregate)`

	// Reference pattern: any wrapping node of the kind whose embedded
	// identifier equals the target name, defining or not.
	referenceQuery = `(%[1]s name: (IDENT) @name (#eq? @name %[2]q)) @target`
)

func definitionQuery(occ *model.Occurrence) string {
	switch occ.Kind {
	case model.Local:
		return fmt.Sprintf(localDefQuery, occ.Name)
	case model.Label:
		return fmt.Sprintf(labelDefQuery, occ.Name)
	case model.Global:
		return fmt.Sprintf(globalDefQuery, occ.Name)
	default:
		return fmt.Sprintf(aggregateDefQuery, occ.Name)
	}
}

// Definitions returns the definition sites of the occurrence's symbol
// within scope, deduplicated and in source-position order. Zero, one
// or many results are all valid: the engine does not enforce name
// uniqueness, so a malformed document with duplicate global names
// yields the full set.
func Definitions(root *syntax.Node, source []byte, occ *model.Occurrence, scope *syntax.Node) ([]syntax.Range, error) {
	return collect(definitionQuery(occ), root, source, occ, scope)
}

// References returns every occurrence of the symbol within scope,
// deduplicated and in source-position order.
func References(root *syntax.Node, source []byte, occ *model.Occurrence, scope *syntax.Node) ([]syntax.Range, error) {
	q := fmt.Sprintf(referenceQuery, occ.Kind.Wrapper(), occ.Name)
	return collect(q, root, source, occ, scope)
}

// collect compiles and runs a query restricted to the scope's byte
// range and gathers the ranges of captured wrapping nodes.
func collect(querySource string, root *syntax.Node, source []byte, occ *model.Occurrence, scope *syntax.Node) ([]syntax.Range, error) {
	q, err := query.New(querySource)
	if err != nil {
		return nil, fmt.Errorf("compiling query: %w", err)
	}

	qc := query.NewCursor()
	qc.SetByteRange(scope.StartByte(), scope.EndByte())
	qc.Exec(q, root)

	wrapper := occ.Kind.Wrapper()
	var nodes []*syntax.Node
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		m = qc.FilterPredicates(m, source)
		for _, c := range m.Captures {
			if c.Node.Kind() == wrapper {
				nodes = append(nodes, c.Node)
			}
		}
	}

	return dedupeRanges(nodes), nil
}

// dedupeRanges sorts node ranges into source-position order and drops
// duplicate spans captured by more than one pattern.
func dedupeRanges(nodes []*syntax.Node) []syntax.Range {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].StartByte() < nodes[j].StartByte()
	})

	var out []syntax.Range
	var lastStart, lastEnd uint32
	for _, n := range nodes {
		if len(out) > 0 && n.StartByte() == lastStart && n.EndByte() == lastEnd {
			continue
		}
		lastStart, lastEnd = n.StartByte(), n.EndByte()
		out = append(out, n.Range())
	}
	return out
}
