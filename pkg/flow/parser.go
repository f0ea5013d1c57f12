package flow

import (
	"strings"

	"github.com/matzehuels/mermaid/pkg/diag"
)

// =============================================================================
// Parser - Single-Pass Statement Consumer
// =============================================================================

// fragments is the parser's output: the unresolved diagram tables plus the
// queued directives, handed to the assembler. Directives are queued rather
// than applied because they may reference nodes declared later in the source.
type fragments struct {
	title     string
	direction Direction
	nodes     map[string]*Node
	order     []string        // node insertion order (for stable assembly)
	declared  map[string]bool // ids whose shape was set explicitly
	edges     []Edge
	roots     []*Subgraph

	classDefs []classDefDirective
	classes   []classDirective
	styles    []styleDirective
	clicks    []clickDirective

	warnings []diag.Warning
}

type styleDirective struct {
	target string
	css    string
	pos    diag.Pos
}

type classDefDirective struct {
	name string
	css  string
	pos  diag.Pos
}

type classDirective struct {
	nodes []string
	class string
	pos   diag.Pos
}

type clickDirective struct {
	binding ClickBinding
	pos     diag.Pos
}

// frame is one element of the parser's context stack: "inside subgraph X"
// with the source position of the opening keyword for unterminated-subgraph
// reporting.
type frame struct {
	sg  *Subgraph
	pos diag.Pos
}

type parser struct {
	tokens []Token
	i      int
	frags  fragments
	stack  []frame // subgraph context stack; empty means top level
}

// runParser consumes the token sequence into diagram fragments. Hard
// failures (structural errors, unterminated subgraphs) abort; recoverable
// deviations are collected into frags.warnings and parsing resumes at the
// next line.
func runParser(tokens []Token) (*fragments, error) {
	p := &parser{
		tokens: tokens,
		frags: fragments{
			direction: DirectionTD,
			nodes:     map[string]*Node{},
			declared:  map[string]bool{},
		},
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	return &p.frags, nil
}

func (p *parser) cur() Token  { return p.tokens[p.i] }
func (p *parser) next() Token { t := p.tokens[p.i]; p.i++; return t }

func (p *parser) peekKind() Kind { return p.tokens[p.i].Kind }

// kindAfter returns the kind of the token after the current one.
func (p *parser) kindAfter() Kind {
	if p.i+1 >= len(p.tokens) {
		return KindEOF
	}
	return p.tokens[p.i+1].Kind
}

func (p *parser) warnf(code diag.Code, pos diag.Pos, format string, args ...any) {
	p.frags.warnings = append(p.frags.warnings, diag.Warningf(code, pos, format, args...))
}

// skipLine advances past the rest of the current line, consuming the
// terminating newline.
func (p *parser) skipLine() {
	for {
		switch p.peekKind() {
		case KindEOF:
			return
		case KindNewline:
			p.i++
			return
		}
		p.i++
	}
}

func (p *parser) skipBlankLines() {
	for p.peekKind() == KindNewline {
		p.i++
	}
}

func (p *parser) run() error {
	if err := p.parseHeader(); err != nil {
		return err
	}

	for p.peekKind() != KindEOF {
		if err := p.parseStatement(); err != nil {
			return err
		}
	}

	if len(p.stack) > 0 {
		outer := p.stack[0]
		return diag.New(diag.ErrCodeStructural, outer.pos,
			"subgraph %q has no matching 'end'", outer.sg.ID).
			Expectation("EOF", KindEnd.String())
	}
	return nil
}

// parseHeader consumes the "flowchart <dir>" or "graph <dir>" line. A
// missing or unknown direction falls back to top-down with a warning.
func (p *parser) parseHeader() error {
	p.skipBlankLines()
	tok := p.cur()
	if tok.Kind != KindFlowchart && tok.Kind != KindGraph {
		return diag.New(diag.ErrCodeSyntax, tok.Pos, "missing flowchart header").
			Expectation(tok.Literal, KindFlowchart.String(), KindGraph.String())
	}
	p.i++

	switch p.peekKind() {
	case KindDirCode:
		p.frags.direction = Direction(p.next().Literal)
	case KindNewline, KindEOF:
		p.warnf(diag.WarnCodeUnknownDirection, tok.Pos, "missing flow direction, defaulting to TD")
	default:
		bad := p.cur()
		p.warnf(diag.WarnCodeUnknownDirection, bad.Pos,
			"unknown flow direction %q, defaulting to TD", bad.Literal)
	}
	p.skipLine()
	return nil
}

func (p *parser) parseStatement() error {
	switch p.peekKind() {
	case KindNewline:
		p.i++
		return nil

	case KindTitle:
		if p.kindAfter() == KindText {
			return p.parseTitle()
		}
		return p.parseChain()

	case KindSubgraph:
		return p.parseSubgraphOpen()

	case KindEnd:
		tok := p.next()
		if len(p.stack) == 0 {
			p.warnf(diag.WarnCodeStrayEnd, tok.Pos, "'end' with no open subgraph")
		} else {
			p.stack = p.stack[:len(p.stack)-1]
		}
		p.skipLine()
		return nil

	case KindDirection:
		return p.parseDirection()

	case KindStyle:
		if k := p.kindAfter(); k == KindIdent || isKeyword(k) {
			return p.parseStyle()
		}
		return p.parseChain()

	case KindClassDef:
		if k := p.kindAfter(); k == KindIdent || isKeyword(k) {
			return p.parseClassDef()
		}
		return p.parseChain()

	case KindClass:
		if p.kindAfter() == KindText {
			return p.parseClass()
		}
		return p.parseChain()

	case KindClick:
		if k := p.kindAfter(); k == KindIdent || isKeyword(k) {
			return p.parseClick()
		}
		return p.parseChain()

	case KindIdent, KindFlowchart, KindGraph, KindDirCode:
		// Keywords in statement position parse as plain identifiers.
		return p.parseChain()

	default:
		tok := p.cur()
		p.warnf(diag.WarnCodeUnknownLine, tok.Pos, "unrecognized line starting with %q", tok.Literal)
		p.skipLine()
		return nil
	}
}

func (p *parser) parseTitle() error {
	p.i++
	if p.peekKind() == KindText {
		p.frags.title = p.next().Literal
	}
	p.skipLine()
	return nil
}

// parseSubgraphOpen pushes a new context frame. The identifier is the
// blank-joined run of tokens before an optional bracketed title.
func (p *parser) parseSubgraphOpen() error {
	kw := p.next()

	var idParts []string
	var title string
	for {
		tok := p.cur()
		switch tok.Kind {
		case KindNewline, KindEOF:
		case KindLSquare:
			match, ok, err := MatchShape(p.tokens, p.i)
			if err != nil {
				return err
			}
			if ok {
				title = match.Text
				p.i += match.Consumed
				continue
			}
			p.i++
			continue
		case KindIdent, KindText, KindString:
			idParts = append(idParts, tok.Literal)
			p.i++
			continue
		default:
			if isKeyword(tok.Kind) {
				idParts = append(idParts, tok.Literal)
				p.i++
				continue
			}
			p.warnf(diag.WarnCodeUnknownLine, tok.Pos,
				"unexpected %s in subgraph header", tok.Kind)
			p.i++
			continue
		}
		break
	}

	id := strings.Join(idParts, " ")
	if id == "" && title != "" {
		id = title
	}

	sg := &Subgraph{ID: id, Title: title}
	if len(p.stack) > 0 {
		parent := p.stack[len(p.stack)-1].sg
		parent.Subgraphs = append(parent.Subgraphs, sg)
	} else {
		p.frags.roots = append(p.frags.roots, sg)
	}
	p.stack = append(p.stack, frame{sg: sg, pos: kw.Pos})
	p.skipLine()
	return nil
}

func (p *parser) parseDirection() error {
	kw := p.next()
	if p.peekKind() != KindDirCode {
		p.warnf(diag.WarnCodeUnknownLine, kw.Pos, "direction statement without a direction code")
		p.skipLine()
		return nil
	}
	dir := Direction(p.next().Literal)
	if len(p.stack) == 0 {
		p.warnf(diag.WarnCodeMisplacedDirection, kw.Pos, "direction statement outside a subgraph")
	} else {
		p.stack[len(p.stack)-1].sg.Direction = dir
	}
	p.skipLine()
	return nil
}

// =============================================================================
// Directive Statements - Queued for the Assembler
// =============================================================================

func (p *parser) parseStyle() error {
	kw := p.next()
	if p.peekKind() != KindIdent && !isKeyword(p.peekKind()) {
		p.warnf(diag.WarnCodeUnknownLine, kw.Pos, "style statement without a target node")
		p.skipLine()
		return nil
	}
	target := p.next().Literal
	var css string
	if p.peekKind() == KindText {
		css = p.next().Literal
	}
	p.frags.styles = append(p.frags.styles, styleDirective{target: target, css: css, pos: kw.Pos})
	p.skipLine()
	return nil
}

func (p *parser) parseClassDef() error {
	kw := p.next()
	if p.peekKind() != KindIdent && !isKeyword(p.peekKind()) {
		p.warnf(diag.WarnCodeUnknownLine, kw.Pos, "classDef statement without a class name")
		p.skipLine()
		return nil
	}
	name := p.next().Literal
	var css string
	if p.peekKind() == KindText {
		css = p.next().Literal
	}
	p.frags.classDefs = append(p.frags.classDefs, classDefDirective{name: name, css: css, pos: kw.Pos})
	p.skipLine()
	return nil
}

// parseClass handles "class A,B,C className".
func (p *parser) parseClass() error {
	kw := p.next()
	if p.peekKind() != KindText {
		p.warnf(diag.WarnCodeUnknownLine, kw.Pos, "class statement without arguments")
		p.skipLine()
		return nil
	}
	fields := strings.Fields(p.next().Literal)
	if len(fields) < 2 {
		p.warnf(diag.WarnCodeUnknownLine, kw.Pos, "class statement needs node list and class name")
		p.skipLine()
		return nil
	}
	var nodes []string
	for _, id := range strings.Split(fields[0], ",") {
		if id = strings.TrimSpace(id); id != "" {
			nodes = append(nodes, id)
		}
	}
	p.frags.classes = append(p.frags.classes, classDirective{nodes: nodes, class: fields[1], pos: kw.Pos})
	p.skipLine()
	return nil
}

// parseClick handles "click A href "url" [target]", "click A fn "tooltip""
// and the shorthand "click A "url" "tooltip"". A callback and an href may be
// combined on one line.
func (p *parser) parseClick() error {
	kw := p.next()
	if p.peekKind() != KindIdent && !isKeyword(p.peekKind()) {
		p.warnf(diag.WarnCodeUnknownLine, kw.Pos, "click statement without a target node")
		p.skipLine()
		return nil
	}
	binding := ClickBinding{NodeID: p.next().Literal}

	for {
		tok := p.cur()
		switch {
		case tok.Kind == KindNewline || tok.Kind == KindEOF:
			p.frags.clicks = append(p.frags.clicks, clickDirective{binding: binding, pos: kw.Pos})
			p.skipLine()
			return nil

		case tok.Kind == KindString:
			p.i++
			if binding.Href == "" && binding.Callback == "" {
				binding.Href = tok.Literal
			} else {
				binding.Tooltip = tok.Literal
			}

		case tok.Kind == KindIdent && tok.Literal == "href":
			p.i++
			if p.peekKind() != KindString {
				p.warnf(diag.WarnCodeUnknownLine, tok.Pos, "click href without a quoted URL")
				p.skipLine()
				return nil
			}
			binding.Href = p.next().Literal

		case tok.Kind == KindIdent || isKeyword(tok.Kind):
			p.i++
			if binding.Href != "" && binding.Target == "" {
				binding.Target = tok.Literal
			} else if binding.Callback == "" {
				binding.Callback = tok.Literal
			}

		default:
			p.warnf(diag.WarnCodeUnknownLine, tok.Pos, "unexpected %s in click statement", tok.Kind)
			p.skipLine()
			return nil
		}
	}
}

// =============================================================================
// Node & Edge Chain Statements
// =============================================================================

// parseChain handles a node declaration optionally chained through edge
// symbols: "A[Start] --> B{Decision} --> C". Every endpoint is ensured in the
// node table; edge symbols that fail classification downgrade the rest of
// the line to a recoverable deviation.
func (p *parser) parseChain() error {
	left, ok, err := p.parseEndpoint()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	for p.peekKind() == KindEdge {
		edgeTok := p.cur()
		match, ok, err := MatchEdge(p.tokens, p.i)
		if err != nil {
			return err
		}
		if !ok {
			p.warnf(diag.WarnCodeUnknownLine, edgeTok.Pos,
				"unrecognized edge symbol %q", edgeTok.Literal)
			p.skipLine()
			return nil
		}
		p.i += match.Consumed

		right, ok, err := p.parseEndpoint()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		p.recordEdge(Edge{
			From:      left,
			To:        right,
			Type:      match.Type,
			Label:     match.Label,
			MinLength: match.MinLength,
		})
		left = right
	}

	switch p.peekKind() {
	case KindNewline, KindEOF:
		p.skipLine()
	default:
		tok := p.cur()
		p.warnf(diag.WarnCodeUnknownLine, tok.Pos,
			"unexpected %s after node statement", tok.Kind)
		p.skipLine()
	}
	return nil
}

// parseEndpoint parses one chain endpoint: an identifier with an optional
// shape window. Returns ok=false (with a collected warning) when the current
// token cannot start an endpoint.
func (p *parser) parseEndpoint() (string, bool, error) {
	tok := p.cur()
	if tok.Kind != KindIdent && !isKeyword(tok.Kind) {
		p.warnf(diag.WarnCodeUnknownLine, tok.Pos,
			"expected node identifier, found %s", tok.Kind)
		p.skipLine()
		return "", false, nil
	}
	id := p.next().Literal

	match, ok, err := MatchShape(p.tokens, p.i)
	if err != nil {
		return "", false, err
	}
	if !ok {
		p.ensureNode(id)
		return id, true, nil
	}
	p.i += match.Consumed
	p.declareNode(id, match, tok.Pos)
	return id, true, nil
}

// ensureNode auto-creates a default rectangle stub for an identifier the
// first time it is seen. Stubs are owned by the innermost active subgraph.
func (p *parser) ensureNode(id string) *Node {
	if n, exists := p.frags.nodes[id]; exists {
		return n
	}
	n := &Node{ID: id, Shape: ShapeRectangle}
	p.frags.nodes[id] = n
	p.frags.order = append(p.frags.order, id)
	if len(p.stack) > 0 {
		sg := p.stack[len(p.stack)-1].sg
		sg.Nodes = append(sg.Nodes, id)
	}
	return n
}

// declareNode applies an explicit shape declaration. A later declaration
// refines a stub in place; redeclaring the shape of an explicitly declared
// node is a recoverable deviation and the first declaration wins.
func (p *parser) declareNode(id string, match ShapeMatch, pos diag.Pos) {
	n := p.ensureNode(id)
	if p.frags.declared[id] {
		p.warnf(diag.WarnCodeDuplicateShape, pos,
			"node %q already declared with shape %s", id, n.Shape)
		return
	}
	n.Shape = match.Shape
	n.Text = match.Text
	n.Icon = match.Icon
	p.frags.declared[id] = true
}

// recordEdge appends the edge to the diagram-wide list and, when a subgraph
// frame is active, to that frame's scoped list as well. This gives O(1)
// membership without a second pass.
func (p *parser) recordEdge(e Edge) {
	p.frags.edges = append(p.frags.edges, e)
	if len(p.stack) > 0 {
		sg := p.stack[len(p.stack)-1].sg
		sg.Edges = append(sg.Edges, e)
	}
}
