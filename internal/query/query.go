// Package query evaluates tree patterns against QBE syntax trees. It
// implements the subset of the tree-sitter query dialect the server
// needs: nested node patterns, field constraints, named captures and
// #eq? text predicates, with optional byte-range restriction.
package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Query is a compiled set of patterns. A Query is immutable and safe
// to share.
type Query struct {
	patterns []*pattern
}

type pattern struct {
	root       *step
	predicates []predicate
}

// step matches one node: its kind, the grammar field it must occupy
// in its parent (if any), and the child steps that must match among
// the node's named children.
type step struct {
	kind     string
	field    string
	capture  string
	children []*step
}

// predicate is an #eq? between a capture's text and a literal.
type predicate struct {
	capture string
	value   string
}

// New compiles query source into a Query.
func New(source string) (*Query, error) {
	toks, err := tokenizeQuery(source)
	if err != nil {
		return nil, err
	}

	p := &queryParser{toks: toks}
	q := &Query{}
	for !p.done() {
		pat := &pattern{}
		root, err := p.parseStep(pat, "")
		if err != nil {
			return nil, err
		}
		if name, ok := p.takeCapture(); ok {
			root.capture = name
		}
		pat.root = root
		q.patterns = append(q.patterns, pat)
	}
	if len(q.patterns) == 0 {
		return nil, fmt.Errorf("empty query")
	}
	return q, nil
}

type queryParser struct {
	toks []string
	pos  int
}

func (p *queryParser) done() bool { return p.pos >= len(p.toks) }

func (p *queryParser) peek() string {
	if p.done() {
		return ""
	}
	return p.toks[p.pos]
}

func (p *queryParser) next() string {
	t := p.peek()
	if !p.done() {
		p.pos++
	}
	return t
}

// takeCapture consumes a trailing @name token if present.
func (p *queryParser) takeCapture() (string, bool) {
	if strings.HasPrefix(p.peek(), "@") {
		return strings.TrimPrefix(p.next(), "@"), true
	}
	return "", false
}

func (p *queryParser) parseStep(pat *pattern, field string) (*step, error) {
	if tok := p.next(); tok != "(" {
		return nil, fmt.Errorf("expected ( at %q", tok)
	}

	kind := p.next()
	if kind == "" || kind == "(" || kind == ")" || strings.HasPrefix(kind, "@") || strings.HasPrefix(kind, "#") {
		return nil, fmt.Errorf("expected node kind, got %q", kind)
	}
	st := &step{kind: kind, field: field}

	for {
		switch tok := p.peek(); {
		case tok == "":
			return nil, fmt.Errorf("unterminated pattern for %s", kind)

		case tok == ")":
			p.next()
			return st, nil

		case strings.HasSuffix(tok, ":"):
			childField := strings.TrimSuffix(p.next(), ":")
			child, err := p.parseStep(pat, childField)
			if err != nil {
				return nil, err
			}
			if name, ok := p.takeCapture(); ok {
				child.capture = name
			}
			st.children = append(st.children, child)

		case tok == "(":
			if p.pos+1 < len(p.toks) && strings.HasPrefix(p.toks[p.pos+1], "#") {
				pred, err := p.parsePredicate()
				if err != nil {
					return nil, err
				}
				pat.predicates = append(pat.predicates, pred)
				continue
			}
			child, err := p.parseStep(pat, "")
			if err != nil {
				return nil, err
			}
			if name, ok := p.takeCapture(); ok {
				child.capture = name
			}
			st.children = append(st.children, child)

		default:
			return nil, fmt.Errorf("unexpected token %q in pattern %s", tok, kind)
		}
	}
}

func (p *queryParser) parsePredicate() (predicate, error) {
	p.next() // "("
	op := p.next()
	if op != "#eq?" {
		return predicate{}, fmt.Errorf("unsupported predicate %q", op)
	}
	capName := p.next()
	if !strings.HasPrefix(capName, "@") {
		return predicate{}, fmt.Errorf("#eq? expects a capture, got %q", capName)
	}
	lit := p.next()
	if !strings.HasPrefix(lit, `"`) {
		return predicate{}, fmt.Errorf("#eq? expects a string literal, got %q", lit)
	}
	value, err := strconv.Unquote(lit)
	if err != nil {
		return predicate{}, fmt.Errorf("bad string literal %s: %w", lit, err)
	}
	if tok := p.next(); tok != ")" {
		return predicate{}, fmt.Errorf("expected ) after predicate, got %q", tok)
	}
	return predicate{capture: strings.TrimPrefix(capName, "@"), value: value}, nil
}

// tokenizeQuery splits query source into parens, atoms and string
// literals.
func tokenizeQuery(source string) ([]string, error) {
	var toks []string
	for i := 0; i < len(source); {
		c := source[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '(' || c == ')':
			toks = append(toks, string(c))
			i++

		case c == '"':
			j := i + 1
			for j < len(source) && source[j] != '"' {
				if source[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(source) {
				return nil, fmt.Errorf("unterminated string literal")
			}
			toks = append(toks, source[i:j+1])
			i = j + 1

		default:
			j := i
			for j < len(source) && !strings.ContainsRune(" \t\n\r()\"", rune(source[j])) {
				j++
			}
			toks = append(toks, source[i:j])
			i = j
		}
	}
	return toks, nil
}
