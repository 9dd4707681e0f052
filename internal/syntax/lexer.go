package syntax

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNewline
	tokIdent  // keywords, opcodes, base types
	tokNumber // integer or float literal
	tokString // "..." data item
	tokLocal  // %name
	tokGlobal // $name
	tokLabel  // @name
	tokType   // :name
	tokPunct  // single punctuation byte
)

// token spans source bytes [start, end). For sigil tokens the text
// includes the sigil; the identifier part starts at start+1.
type token struct {
	kind       tokenKind
	text       string
	start, end uint32
	startPoint Point
	endPoint   Point
}

type lexer struct {
	src []byte
	pos uint32
	row uint32
	col uint32
}

func newLexer(src []byte) *lexer {
	return &lexer{src: src}
}

func (l *lexer) point() Point { return Point{Row: l.row, Column: l.col} }

func (l *lexer) advance() {
	if l.src[l.pos] == '\n' {
		l.row++
		l.col = 0
	} else {
		l.col++
	}
	l.pos++
}

func isIdentByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' ||
		b >= '0' && b <= '9' || b == '_' || b == '.' || b == '$'
}

func isIdentStart(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b == '_' || b == '.'
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isSigil(b byte) bool {
	return b == '%' || b == '$' || b == '@' || b == ':'
}

func sigilKind(b byte) tokenKind {
	switch b {
	case '%':
		return tokLocal
	case '$':
		return tokGlobal
	case '@':
		return tokLabel
	default:
		return tokType
	}
}

// tokenize scans the whole source. It never fails: bytes it cannot
// place are emitted as punctuation for the parser to skip.
func tokenize(src []byte) []token {
	l := newLexer(src)
	var toks []token

	for l.pos < uint32(len(l.src)) {
		b := l.src[l.pos]
		start, sp := l.pos, l.point()

		switch {
		case b == '\n':
			l.advance()
			toks = append(toks, token{tokNewline, "\n", start, l.pos, sp, l.point()})

		case b == ' ' || b == '\t' || b == '\r':
			l.advance()

		case b == '#':
			for l.pos < uint32(len(l.src)) && l.src[l.pos] != '\n' {
				l.advance()
			}

		case b == '"':
			l.advance()
			for l.pos < uint32(len(l.src)) && l.src[l.pos] != '\n' {
				c := l.src[l.pos]
				l.advance()
				if c == '\\' && l.pos < uint32(len(l.src)) && l.src[l.pos] != '\n' {
					l.advance()
					continue
				}
				if c == '"' && l.pos > start+1 {
					break
				}
			}
			toks = append(toks, token{tokString, string(l.src[start:l.pos]), start, l.pos, sp, l.point()})

		case isSigil(b) && l.pos+1 < uint32(len(l.src)) && isIdentByte(l.src[l.pos+1]):
			l.advance()
			for l.pos < uint32(len(l.src)) && isIdentByte(l.src[l.pos]) {
				l.advance()
			}
			toks = append(toks, token{sigilKind(b), string(l.src[start:l.pos]), start, l.pos, sp, l.point()})

		case isIdentStart(b):
			for l.pos < uint32(len(l.src)) && isIdentByte(l.src[l.pos]) {
				l.advance()
			}
			toks = append(toks, token{tokIdent, string(l.src[start:l.pos]), start, l.pos, sp, l.point()})

		case isDigit(b) || (b == '-' && l.pos+1 < uint32(len(l.src)) && isDigit(l.src[l.pos+1])):
			l.advance()
			for l.pos < uint32(len(l.src)) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '.' || l.src[l.pos] == 'x' ||
				l.src[l.pos] >= 'a' && l.src[l.pos] <= 'f' || l.src[l.pos] >= 'A' && l.src[l.pos] <= 'F') {
				l.advance()
			}
			toks = append(toks, token{tokNumber, string(l.src[start:l.pos]), start, l.pos, sp, l.point()})

		default:
			l.advance()
			toks = append(toks, token{tokPunct, string(l.src[start:l.pos]), start, l.pos, sp, l.point()})
		}
	}

	end := l.point()
	toks = append(toks, token{tokEOF, "", l.pos, l.pos, end, end})
	return toks
}
