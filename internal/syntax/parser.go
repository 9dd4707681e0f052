package syntax

// Parse turns QBE IR source into a syntax tree. Parsing is tolerant:
// tokens that fit no construct are skipped, and stray sigil
// identifiers still produce wrapper nodes so that cursor operations
// on malformed documents keep working. Parse never fails.
func Parse(source []byte) *Tree {
	toks := tokenize(source)
	p := &parser{toks: toks}

	eof := toks[len(toks)-1]
	root := &Node{
		kind:     KindModule,
		endByte:  uint32(len(source)),
		endPoint: eof.endPoint,
	}

	for !p.at(tokEOF) {
		if p.at(tokNewline) {
			p.next()
			continue
		}
		p.parseTopLevel(root)
	}

	return &Tree{root: root}
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) at(k tokenKind) bool { return p.toks[p.pos].kind == k }

func (p *parser) atIdent(text string) bool {
	t := p.toks[p.pos]
	return t.kind == tokIdent && t.text == text
}

func (p *parser) atPunct(text string) bool {
	t := p.toks[p.pos]
	return t.kind == tokPunct && t.text == text
}

// closeNode stamps the node's end from the last consumed token.
func (p *parser) closeNode(n *Node) {
	if p.pos == 0 {
		return
	}
	t := p.toks[p.pos-1]
	n.endByte = t.end
	n.endPoint = t.endPoint
}

func openNode(kind Kind, field string, tok token) *Node {
	return &Node{kind: kind, field: field, startByte: tok.start, startPoint: tok.startPoint}
}

// wrapperNode builds a LOCAL/GLOBAL/LABEL/AGGREGATE node from a
// sigil token, with the IDENT child spanning the name without the
// sigil.
func wrapperNode(field string, tok token) *Node {
	var kind Kind
	switch tok.kind {
	case tokLocal:
		kind = KindLocal
	case tokGlobal:
		kind = KindGlobal
	case tokLabel:
		kind = KindLabel
	case tokType:
		kind = KindAggregate
	default:
		return nil
	}

	ident := &Node{
		kind:       KindIdent,
		field:      "name",
		startByte:  tok.start + 1,
		endByte:    tok.end,
		startPoint: Point{Row: tok.startPoint.Row, Column: tok.startPoint.Column + 1},
		endPoint:   tok.endPoint,
	}
	w := &Node{
		kind:       kind,
		field:      field,
		startByte:  tok.start,
		endByte:    tok.end,
		startPoint: tok.startPoint,
		endPoint:   tok.endPoint,
	}
	w.appendChild(ident)
	return w
}

func isSigilToken(k tokenKind) bool {
	return k == tokLocal || k == tokGlobal || k == tokLabel || k == tokType
}

func (p *parser) parseTopLevel(root *Node) {
	start := p.pos

	// Linkage precedes data and function definitions.
	for p.atIdent("export") || p.atIdent("thread") || p.atIdent("common") || p.atIdent("section") {
		section := p.atIdent("section")
		p.next()
		for section && p.at(tokString) {
			p.next()
		}
	}

	switch {
	case p.atIdent("type"):
		p.parseTypeDef(root, p.toks[start])
	case p.atIdent("data"):
		p.parseDataDef(root, p.toks[start])
	case p.atIdent("function"):
		p.parseFuncDef(root, p.toks[start])
	default:
		if p.pos > start {
			return // consumed linkage with nothing attached, resync
		}
		if isSigilToken(p.peek().kind) {
			root.appendChild(wrapperNode("", p.next()))
			return
		}
		p.next()
	}
}

func (p *parser) parseTypeDef(root *Node, startTok token) {
	node := openNode(KindTypeDef, "", startTok)
	p.next() // "type"

	if p.at(tokType) {
		node.appendChild(wrapperNode("", p.next()))
	}
	if p.atPunct("=") {
		p.next()
	}

	// Body refs live under their own node so that a bare (TYPEDEF
	// (AGGREGATE)) pattern only reaches the defined name.
	body := openNode(KindTypeDefBody, "", p.peek())
	before := p.pos
	p.parseBracedBody(body, func(t token) *Node {
		if t.kind == tokType {
			return wrapperNode("", t)
		}
		return nil
	})
	if p.pos > before {
		p.closeNode(body)
		node.appendChild(body)
	}

	p.closeNode(node)
	root.appendChild(node)
}

func (p *parser) parseDataDef(root *Node, startTok token) {
	node := openNode(KindDataDef, "", startTok)
	p.next() // "data"

	if p.at(tokGlobal) {
		node.appendChild(wrapperNode("name", p.next()))
	}
	if p.atPunct("=") {
		p.next()
	}

	p.parseBracedBody(node, func(t token) *Node {
		if t.kind == tokGlobal {
			return wrapperNode("", t)
		}
		return nil
	})

	p.closeNode(node)
	root.appendChild(node)
}

// parseBracedBody consumes an optional align clause and a brace
// balanced body, wrapping the tokens wrap cares about. Without an
// opening brace it stops at the end of the line.
func (p *parser) parseBracedBody(node *Node, wrap func(token) *Node) {
	depth := 0
	for !p.at(tokEOF) {
		t := p.peek()
		switch {
		case t.kind == tokPunct && t.text == "{":
			depth++
			p.next()
		case t.kind == tokPunct && t.text == "}":
			depth--
			p.next()
			if depth <= 0 {
				return
			}
		case t.kind == tokNewline && depth == 0:
			return
		default:
			if w := wrap(t); w != nil {
				node.appendChild(w)
			}
			p.next()
		}
	}
}

func (p *parser) parseFuncDef(root *Node, startTok token) {
	node := openNode(KindFuncDef, "", startTok)
	p.next() // "function"

	// Optional return ABI type: a base type or an aggregate.
	if p.at(tokType) {
		node.appendChild(wrapperNode("", p.next()))
	} else if p.at(tokIdent) {
		p.next()
	}

	if p.at(tokGlobal) {
		node.appendChild(wrapperNode("name", p.next()))
	}

	if p.atPunct("(") {
		p.parseParams(node)
	}

	if p.atPunct("{") {
		p.next()
		for !p.at(tokEOF) && !p.atPunct("}") {
			switch {
			case p.at(tokNewline):
				p.next()
			case p.at(tokLabel):
				p.parseBlock(node)
			default:
				p.parseInst(node)
			}
		}
		if p.atPunct("}") {
			p.next()
		}
	}

	p.closeNode(node)
	root.appendChild(node)
}

func (p *parser) parseParams(funcdef *Node) {
	params := openNode(KindFuncDefParams, "params", p.next()) // "("

	for !p.at(tokEOF) && !p.atPunct(")") && !p.at(tokNewline) {
		if p.atPunct(",") {
			p.next()
			continue
		}

		start := p.pos
		var abity *Node
		if p.at(tokType) {
			abity = wrapperNode("", p.next())
		} else if p.at(tokIdent) {
			p.next() // base type, "env" or "..."
		}

		switch {
		case p.at(tokLocal):
			param := openNode(KindFuncDefParam, "", p.toks[start])
			if abity != nil {
				param.appendChild(abity)
			}
			param.appendChild(wrapperNode("name", p.next()))
			p.closeNode(param)
			params.appendChild(param)
		case abity != nil:
			params.appendChild(abity)
		case p.pos == start:
			p.next()
		}
	}
	if p.atPunct(")") {
		p.next()
	}

	p.closeNode(params)
	funcdef.appendChild(params)
}

func (p *parser) parseBlock(funcdef *Node) {
	labelTok := p.next()
	block := openNode(KindBlock, "", labelTok)
	block.appendChild(wrapperNode("label", labelTok))

	for !p.at(tokEOF) && !p.at(tokLabel) && !p.atPunct("}") {
		if p.at(tokNewline) {
			p.next()
			continue
		}
		p.parseInst(block)
	}

	p.closeNode(block)
	funcdef.appendChild(block)
}

// parseInst consumes one instruction line, wrapping every sigil
// operand. The leading local of "%x =w op ..." gets the assignment
// field.
func (p *parser) parseInst(parent *Node) {
	inst := openNode(KindInst, "", p.peek())
	first := true

	for !p.at(tokEOF) && !p.at(tokNewline) && !p.atPunct("}") {
		t := p.peek()
		if isSigilToken(t.kind) {
			field := ""
			if first && t.kind == tokLocal && p.toks[p.pos+1].kind == tokPunct && p.toks[p.pos+1].text == "=" {
				field = "assignment"
			}
			inst.appendChild(wrapperNode(field, p.next()))
		} else {
			p.next()
		}
		first = false
	}

	p.closeNode(inst)
	parent.appendChild(inst)
}
