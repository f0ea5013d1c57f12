package flow

import (
	"strings"

	"github.com/matzehuels/mermaid/pkg/diag"
)

// =============================================================================
// Shape Rules - Bracket Pair Matching
// =============================================================================

// ShapeMatch is the result of matching a node's bracket pair.
type ShapeMatch struct {
	Shape    Shape
	Text     string // display text, token literals joined by single spaces
	Icon     string // extracted fa:fa-xxx reference, if any
	Consumed int    // token count including both brackets
}

// shapeOpener resolves an opening token (with one-token lookahead for the
// compound stadium/cylinder forms) to the shape it denotes and the closing
// token sequence that terminates it. The lean shapes ([/ and [\) accept two
// closers; the closer decides parallelogram vs trapezoid.
type shapeSpec struct {
	shape    Shape
	altShape Shape  // shape when closed by altClose (lean shapes only)
	open     int    // opening tokens consumed
	close    []Kind // closing token sequence
	altClose []Kind // alternate closing sequence (lean shapes only)
}

// MatchShape matches a node shape window starting at tokens[i], which must be
// a candidate opening-bracket token. It never consumes past its own closing
// symbol. A window interrupted by a newline, EOF or a mismatched bracket is a
// hard structural error.
//
// Returns ok=false if tokens[i] does not open any shape.
func MatchShape(tokens []Token, i int) (ShapeMatch, bool, error) {
	spec, ok := resolveOpener(tokens, i)
	if !ok {
		return ShapeMatch{}, false, nil
	}

	openTok := tokens[i]
	j := i + spec.open
	var parts []string

	for {
		if n, closed := matchSeq(tokens, j, spec.close); closed {
			shape := spec.shape
			text, icon := extractIcon(parts)
			return ShapeMatch{Shape: shape, Text: text, Icon: icon, Consumed: j + n - i}, true, nil
		}
		if spec.altClose != nil {
			if n, closed := matchSeq(tokens, j, spec.altClose); closed {
				text, icon := extractIcon(parts)
				return ShapeMatch{Shape: spec.altShape, Text: text, Icon: icon, Consumed: j + n - i}, true, nil
			}
		}

		tok := tokens[j]
		switch tok.Kind {
		case KindNewline, KindEOF:
			return ShapeMatch{}, false, diag.New(diag.ErrCodeStructural, openTok.Pos,
				"bracket %s has no matching close", openTok.Literal).
				Expectation(tok.Kind.String(), closeNames(spec)...)
		}
		if isBracket(tok.Kind) {
			return ShapeMatch{}, false, diag.New(diag.ErrCodeStructural, tok.Pos,
				"mismatched bracket inside %s node", openTok.Literal).
				Expectation(tok.Kind.String(), closeNames(spec)...)
		}
		if lit := strings.TrimSpace(tok.Literal); lit != "" {
			parts = append(parts, lit)
		}
		j++
	}
}

func resolveOpener(tokens []Token, i int) (shapeSpec, bool) {
	next := KindEOF
	if i+1 < len(tokens) {
		next = tokens[i+1].Kind
	}

	switch tokens[i].Kind {
	case KindTripleLParen:
		return shapeSpec{shape: ShapeDoubleCircle, open: 1, close: []Kind{KindTripleRParen}}, true
	case KindDoubleLParen:
		return shapeSpec{shape: ShapeCircle, open: 1, close: []Kind{KindDoubleRParen}}, true
	case KindDoubleLSquare:
		return shapeSpec{shape: ShapeSubroutine, open: 1, close: []Kind{KindDoubleRSquare}}, true
	case KindDoubleLBrace:
		return shapeSpec{shape: ShapeHexagon, open: 1, close: []Kind{KindDoubleRBrace}}, true
	case KindLParen:
		if next == KindLSquare {
			return shapeSpec{shape: ShapeStadium, open: 2, close: []Kind{KindRSquare, KindRParen}}, true
		}
		return shapeSpec{shape: ShapeRoundedRectangle, open: 1, close: []Kind{KindRParen}}, true
	case KindLSquare:
		if next == KindLParen {
			return shapeSpec{shape: ShapeCylinder, open: 2, close: []Kind{KindRParen, KindRSquare}}, true
		}
		return shapeSpec{shape: ShapeRectangle, open: 1, close: []Kind{KindRSquare}}, true
	case KindLBrace:
		return shapeSpec{shape: ShapeRhombus, open: 1, close: []Kind{KindRBrace}}, true
	case KindSlashOpen:
		return shapeSpec{
			shape: ShapeParallelogram, altShape: ShapeTrapezoid,
			open: 1, close: []Kind{KindSlashClose}, altClose: []Kind{KindBackslashClose},
		}, true
	case KindBackslashOpen:
		return shapeSpec{
			shape: ShapeParallelogramAlt, altShape: ShapeTrapezoidAlt,
			open: 1, close: []Kind{KindBackslashClose}, altClose: []Kind{KindSlashClose},
		}, true
	case KindGT:
		return shapeSpec{shape: ShapeAsymmetric, open: 1, close: []Kind{KindRSquare}}, true
	}
	return shapeSpec{}, false
}

// matchSeq reports whether the token sequence at j matches all kinds in seq.
func matchSeq(tokens []Token, j int, seq []Kind) (int, bool) {
	for n, k := range seq {
		if j+n >= len(tokens) || tokens[j+n].Kind != k {
			return 0, false
		}
	}
	return len(seq), true
}

func closeNames(spec shapeSpec) []string {
	names := make([]string, 0, len(spec.close)+len(spec.altClose))
	for _, k := range spec.close {
		names = append(names, k.String())
	}
	for _, k := range spec.altClose {
		names = append(names, k.String())
	}
	return names
}

func isBracket(k Kind) bool {
	switch k {
	case KindLSquare, KindRSquare, KindLParen, KindRParen, KindLBrace, KindRBrace,
		KindDoubleLSquare, KindDoubleRSquare, KindDoubleLParen, KindDoubleRParen,
		KindTripleLParen, KindTripleRParen, KindDoubleLBrace, KindDoubleRBrace,
		KindSlashOpen, KindBackslashOpen, KindSlashClose, KindBackslashClose:
		return true
	}
	return false
}

// extractIcon joins text parts with single spaces and pulls out a fa:fa-xxx
// icon reference. The lexer splits an unquoted icon into an "fa" identifier
// and a ":fa-..." text run; a quoted icon arrives as one part.
func extractIcon(parts []string) (text, icon string) {
	kept := make([]string, 0, len(parts))
	for i := 0; i < len(parts); i++ {
		switch {
		case parts[i] == "fa" && i+1 < len(parts) && strings.HasPrefix(parts[i+1], ":fa-"):
			icon = "fa" + parts[i+1]
			i++
		case strings.HasPrefix(parts[i], "fa:fa-"):
			// A quoted icon part may carry label text after the reference.
			if ref, rest, cut := strings.Cut(parts[i], " "); cut {
				icon = ref
				kept = append(kept, strings.TrimSpace(rest))
			} else {
				icon = parts[i]
			}
		default:
			kept = append(kept, parts[i])
		}
	}
	return strings.TrimSpace(strings.Join(kept, " ")), icon
}

// =============================================================================
// Edge Rules - Line Symbol Classification
// =============================================================================

// EdgeMatch is the result of matching an edge symbol with its optional label.
type EdgeMatch struct {
	Type      EdgeType
	Label     string
	MinLength int // hint from elongated symbols; zero means none
	Consumed  int // token count including label delimiters
}

// MatchEdge matches an edge starting at tokens[i], which must be a KindEdge
// token. Two label forms are handled: "-->|label| B" and the inline
// "-- label --> B" form, where the closing symbol run decides the edge type.
//
// Returns ok=false if the symbol run does not classify as any edge type;
// callers treat that as a recoverable deviation, not a hard failure.
func MatchEdge(tokens []Token, i int) (EdgeMatch, bool, error) {
	typ, minLen, ok := ClassifyEdge(tokens[i].Literal)
	j := i + 1
	var label string

	if !ok {
		// Inline label form: an open segment like "--", "==" or "-." followed
		// by text and a closing run that classifies.
		if !isOpenSegment(tokens[i].Literal) {
			return EdgeMatch{}, false, nil
		}
		var parts []string
		for ; ; j++ {
			switch tokens[j].Kind {
			case KindNewline, KindEOF:
				return EdgeMatch{}, false, nil
			case KindEdge:
				closeType, closeMin, closeOK := ClassifyEdge(tokens[j].Literal)
				if !closeOK {
					// The dotted inline form splits its symbol across both
					// halves ("-. text .->"); classify them joined.
					closeType, _, closeOK = ClassifyEdge(tokens[i].Literal + tokens[j].Literal)
					closeMin = 0
					if !closeOK {
						return EdgeMatch{}, false, nil
					}
				}
				typ, minLen = closeType, closeMin
			default:
				parts = append(parts, tokens[j].Literal)
				continue
			}
			j++
			label = strings.Join(parts, " ")
			break
		}
	}

	if label == "" && j < len(tokens) && tokens[j].Kind == KindPipe {
		pipePos := tokens[j].Pos
		j++
		var parts []string
		for ; tokens[j].Kind != KindPipe; j++ {
			switch tokens[j].Kind {
			case KindNewline, KindEOF:
				return EdgeMatch{}, false, diag.New(diag.ErrCodeStructural, pipePos,
					"edge label has no closing '|'").
					Expectation(tokens[j].Kind.String(), KindPipe.String())
			}
			parts = append(parts, tokens[j].Literal)
		}
		j++
		label = strings.Join(parts, " ")
	}

	return EdgeMatch{Type: typ, Label: label, MinLength: minLen, Consumed: j - i}, true, nil
}

// isOpenSegment reports whether lit is the opening half of an inline-label
// edge: dashes, equals, or a dash-dot run with no terminator.
func isOpenSegment(lit string) bool {
	if len(lit) < 2 || !strings.HasPrefix(lit, "-") && !strings.HasPrefix(lit, "=") {
		return false
	}
	for _, ch := range lit {
		if ch != '-' && ch != '=' && ch != '.' {
			return false
		}
	}
	return true
}

// ClassifyEdge classifies a complete edge symbol run into its edge-type tag
// and minimum-length hint. Elongated runs ("--->", "-..-", "====>") raise the
// hint above zero; the base-length symbols leave it at zero.
func ClassifyEdge(lit string) (EdgeType, int, bool) {
	s := lit
	bidi := strings.HasPrefix(s, "<")
	if bidi {
		s = s[1:]
	}
	arrow := strings.HasSuffix(s, ">")
	if arrow {
		s = s[:len(s)-1]
	}
	var term byte
	if !arrow && len(s) > 0 {
		if last := s[len(s)-1]; last == 'o' || last == 'x' {
			term = last
			s = s[:len(s)-1]
		}
	}

	var dashes, dots, equals, tildes int
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '-':
			dashes++
		case '.':
			dots++
		case '=':
			equals++
		case '~':
			tildes++
		default:
			return "", 0, false
		}
	}

	switch {
	case tildes > 0:
		if tildes >= 3 && dashes == 0 && dots == 0 && equals == 0 && !bidi && !arrow && term == 0 {
			return EdgeInvisible, 0, true
		}

	case equals > 0:
		if dashes > 0 || dots > 0 || term != 0 {
			return "", 0, false
		}
		switch {
		case bidi && arrow && equals >= 2:
			return EdgeBidirectional, extraLen(equals, 2), true
		case arrow && equals >= 2:
			return EdgeThickArrow, extraLen(equals, 2), true
		case !arrow && !bidi && equals >= 3:
			return EdgeThickLink, extraLen(equals, 3), true
		}

	case dots > 0:
		// Dotted runs are dash-delimited: -.-, -.->, -..-
		if dashes < 2 || term != 0 {
			return "", 0, false
		}
		min := 0
		if dots > 1 {
			min = dots
		}
		switch {
		case bidi && arrow:
			return EdgeBidirectional, min, true
		case arrow:
			return EdgeDottedArrow, min, true
		case !bidi:
			return EdgeDottedLink, min, true
		}

	case dashes > 0:
		switch {
		case term == 'o' && !bidi && !arrow && dashes >= 2:
			return EdgeCircle, extraLen(dashes, 2), true
		case term == 'x' && !bidi && !arrow && dashes >= 2:
			return EdgeCross, extraLen(dashes, 2), true
		case bidi && arrow && dashes >= 2:
			return EdgeBidirectional, extraLen(dashes, 2), true
		case arrow && !bidi && dashes >= 2:
			return EdgeArrow, extraLen(dashes, 2), true
		case !arrow && !bidi && term == 0 && dashes >= 3:
			return EdgeOpenLink, extraLen(dashes, 3), true
		}
	}
	return "", 0, false
}

// extraLen converts an elongated symbol run into a minimum-length hint:
// one extra character raises the hint to base length + 1.
func extraLen(count, base int) int {
	if count <= base {
		return 0
	}
	return count - base + 1
}
