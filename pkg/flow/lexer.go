package flow

import (
	"strings"

	"github.com/matzehuels/mermaid/pkg/diag"
)

// Tokenize converts flowchart source text into an ordered token sequence.
// It is a pure function of the input: no state survives the call.
//
// Multi-character symbols are matched maximal-munch, longest first, so that
// "(((" never tokenizes as "((" + "(" and "-->" never as "--" + ">".
// Whitespace between tokens is discarded; newlines are emitted as explicit
// terminators because statements are line-oriented. "%%" comments are
// dropped entirely. Quoted text is scanned as one opaque token so labels can
// contain any character.
//
// The only hard failure is a lexical dead-end (diag.ErrCodeLex): a control
// character or an unterminated quoted string.
func Tokenize(src string) ([]Token, error) {
	l := &lexer{src: src, line: 1, col: 1, lineStart: true}
	return l.run()
}

type lexer struct {
	src       string
	pos       int // current byte offset
	line      int // current line (1-based)
	col       int // current column (1-based)
	lineStart bool // no token emitted yet on this line
	tokens    []Token
}

func (l *lexer) run() ([]Token, error) {
	for !l.atEnd() {
		if err := l.scan(); err != nil {
			return nil, err
		}
	}
	l.emit(Token{Kind: KindEOF, Pos: l.currentPos()})
	return l.tokens, nil
}

func (l *lexer) currentPos() diag.Pos {
	return diag.Pos{Line: l.line, Column: l.col}
}

func (l *lexer) atEnd() bool {
	return l.pos >= len(l.src)
}

func (l *lexer) peek() byte {
	if l.atEnd() {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *lexer) advance() byte {
	ch := l.src[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *lexer) emit(tok Token) {
	l.tokens = append(l.tokens, tok)
	l.lineStart = tok.Kind == KindNewline
}

// match consumes s if the input starts with it at the current position.
func (l *lexer) match(s string) bool {
	if !strings.HasPrefix(l.src[l.pos:], s) {
		return false
	}
	for range len(s) {
		l.advance()
	}
	return true
}

// symbolTable is the ordered list of fixed bracket symbols, tried longest
// first at each position. Order is load-bearing: it implements maximal munch
// without backtracking.
var symbolTable = []struct {
	text string
	kind Kind
}{
	{"(((", KindTripleLParen},
	{")))", KindTripleRParen},
	{"((", KindDoubleLParen},
	{"))", KindDoubleRParen},
	{"[[", KindDoubleLSquare},
	{"]]", KindDoubleRSquare},
	{"{{", KindDoubleLBrace},
	{"}}", KindDoubleRBrace},
	{"[/", KindSlashOpen},
	{`[\`, KindBackslashOpen},
	{"/]", KindSlashClose},
	{`\]`, KindBackslashClose},
	{"[", KindLSquare},
	{"]", KindRSquare},
	{"(", KindLParen},
	{")", KindRParen},
	{"{", KindLBrace},
	{"}", KindRBrace},
}

func (l *lexer) scan() error {
	ch := l.peek()

	switch {
	case ch == ' ' || ch == '\t' || ch == '\r':
		l.advance()
		return nil

	case ch == '\n':
		pos := l.currentPos()
		l.advance()
		l.emit(Token{Kind: KindNewline, Literal: "\n", Pos: pos})
		return nil

	case ch == '%' && l.peekAt(1) == '%':
		l.skipToLineEnd()
		return nil

	case ch == '"':
		return l.scanString()

	case ch == '|':
		pos := l.currentPos()
		l.advance()
		l.emit(Token{Kind: KindPipe, Literal: "|", Pos: pos})
		return nil

	case ch == '>':
		pos := l.currentPos()
		l.advance()
		l.emit(Token{Kind: KindGT, Literal: ">", Pos: pos})
		return nil

	case isEdgeStart(ch, l.peekAt(1)):
		l.scanEdge()
		return nil
	}

	pos := l.currentPos()
	for _, sym := range symbolTable {
		if l.match(sym.text) {
			l.emit(Token{Kind: sym.kind, Literal: sym.text, Pos: pos})
			return nil
		}
	}

	if isIdentChar(ch) {
		l.scanIdentifier()
		return nil
	}

	if ch < 0x20 || ch == 0x7f {
		return diag.New(diag.ErrCodeLex, l.currentPos(),
			"unrecognized character 0x%02x", ch).Expectation(string(rune(ch)))
	}

	l.scanText()
	return nil
}

func (l *lexer) skipToLineEnd() {
	for !l.atEnd() && l.peek() != '\n' {
		l.advance()
	}
}

// scanString scans a quoted label as a single opaque token. Symbols that are
// meaningful elsewhere (brackets, arrows) carry no meaning inside quotes.
func (l *lexer) scanString() error {
	pos := l.currentPos()
	l.advance() // consume opening "

	var sb strings.Builder
	for {
		if l.atEnd() || l.peek() == '\n' {
			return diag.New(diag.ErrCodeLex, pos, "unterminated string")
		}
		ch := l.advance()
		if ch == '"' {
			l.emit(Token{Kind: KindString, Literal: sb.String(), Pos: pos})
			return nil
		}
		sb.WriteByte(ch)
	}
}

// isEdgeStart reports whether ch begins an edge line-symbol run.
func isEdgeStart(ch, next byte) bool {
	switch ch {
	case '-', '=', '~':
		return true
	case '.':
		// Closing half of the dotted inline-label form: ".->" or ".-".
		return next == '-' || next == '.'
	case '<':
		return next == '-' || next == '=' || next == '~'
	}
	return false
}

// scanEdge consumes a maximal run of edge line-symbol characters into a
// single KindEdge token. Classification of the run (arrow vs dotted vs thick,
// terminators, minimum-length hints) is done later by ClassifyEdge; the lexer
// only delimits the run.
func (l *lexer) scanEdge() {
	pos := l.currentPos()
	start := l.pos

	if l.peek() == '<' {
		l.advance()
	}
	for {
		ch := l.peek()
		if ch == '-' || ch == '.' || ch == '=' || ch == '~' {
			l.advance()
			continue
		}
		break
	}
	// Terminators are consumed eagerly, so "A--oB" is a circle edge into
	// node "B". Node names starting with o or x need a space before them.
	switch l.peek() {
	case '>', 'o', 'x':
		l.advance()
	}

	l.emit(Token{Kind: KindEdge, Literal: l.src[start:l.pos], Pos: pos})
}

func (l *lexer) scanIdentifier() {
	pos := l.currentPos()
	start := l.pos

	for !l.atEnd() && isIdentChar(l.peek()) {
		l.advance()
	}
	literal := l.src[start:l.pos]

	kind, isKw := keywords[literal]
	if !isKw {
		l.emit(Token{Kind: KindIdent, Literal: literal, Pos: pos})
		return
	}

	atLineStart := l.lineStart
	l.emit(Token{Kind: kind, Literal: literal, Pos: pos})

	// Directive statements carry free-form argument text (style property
	// lists, titles) whose characters overlap with edge and bracket symbols.
	// The remainder of a directive line is therefore scanned in raw mode
	// here, where the statement boundary is still known.
	if atLineStart && l.directiveFollows() {
		switch kind {
		case KindStyle, KindClassDef:
			l.skipBlanks()
			if isIdentChar(l.peek()) {
				l.scanIdentifier()
			}
			l.scanRestOfLine()
		case KindClass, KindTitle:
			l.scanRestOfLine()
		}
	}
}

// directiveFollows distinguishes "style A fill:#f00" from a node that merely
// reuses a keyword as its identifier ("style[Shape]", "class-->end"). A
// directive keyword is only honored when followed by blank space and then
// more argument text.
func (l *lexer) directiveFollows() bool {
	if l.peek() != ' ' && l.peek() != '\t' {
		return false
	}
	i := l.pos
	for i < len(l.src) && (l.src[i] == ' ' || l.src[i] == '\t') {
		i++
	}
	if i >= len(l.src) {
		return false
	}
	ch := l.src[i]
	return isIdentChar(ch) || ch == '"'
}

func (l *lexer) skipBlanks() {
	for l.peek() == ' ' || l.peek() == '\t' {
		l.advance()
	}
}

// scanRestOfLine emits the remainder of the current line as one text token,
// trimmed of surrounding blanks. Trailing %% comments are dropped.
func (l *lexer) scanRestOfLine() {
	l.skipBlanks()
	pos := l.currentPos()
	start := l.pos
	for !l.atEnd() && l.peek() != '\n' {
		if l.peek() == '%' && l.peekAt(1) == '%' {
			break
		}
		l.advance()
	}
	text := strings.TrimRight(l.src[start:l.pos], " \t\r")
	if l.peek() == '%' {
		l.skipToLineEnd()
	}
	if text != "" {
		l.emit(Token{Kind: KindText, Literal: text, Pos: pos})
	}
}

// scanText consumes a raw text run: punctuation-led content such as style
// values ("#f9f"), icon references (":fa-user") or label fragments. The run
// ends at whitespace or at any character that can open a bracket, quote,
// pipe or angle symbol.
func (l *lexer) scanText() {
	pos := l.currentPos()
	start := l.pos

	for !l.atEnd() && isTextChar(l.peek()) {
		l.advance()
	}
	// Guard against an empty run when the first character itself is a
	// stop character that reached here (e.g. a lone '/').
	if l.pos == start {
		l.advance()
	}
	l.emit(Token{Kind: KindText, Literal: l.src[start:l.pos], Pos: pos})
}

func isIdentChar(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

// isTextChar reports whether ch may continue a raw text run.
func isTextChar(ch byte) bool {
	switch ch {
	case ' ', '\t', '\r', '\n', '"', '[', ']', '(', ')', '{', '}', '|', '<', '>', '/', '\\':
		return false
	}
	return ch >= 0x20 && ch != 0x7f
}
