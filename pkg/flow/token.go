package flow

import "github.com/matzehuels/mermaid/pkg/diag"

// Kind identifies the type of a lexical token.
type Kind int

const (
	KindEOF Kind = iota
	KindNewline
	KindIdent  // [A-Za-z0-9_]+
	KindText   // raw text run (colors, punctuation, icon refs)
	KindString // "..." scanned opaquely, quotes stripped
	KindPipe   // |
	KindEdge   // any edge line symbol run (classified by ClassifyEdge)
	KindGT     // > (asymmetric shape opener)

	// Shape brackets
	KindLSquare        // [
	KindRSquare        // ]
	KindLParen         // (
	KindRParen         // )
	KindLBrace         // {
	KindRBrace         // }
	KindDoubleLSquare  // [[
	KindDoubleRSquare  // ]]
	KindDoubleLParen   // ((
	KindDoubleRParen   // ))
	KindTripleLParen   // (((
	KindTripleRParen   // )))
	KindDoubleLBrace   // {{
	KindDoubleRBrace   // }}
	KindSlashOpen      // [/
	KindBackslashOpen  // [\
	KindSlashClose     // /]
	KindBackslashClose // \]

	// Keywords. Keyword tokens keep their literal text so the parser can
	// demote them to plain identifiers in non-keyword position.
	KindFlowchart // flowchart
	KindGraph     // graph
	KindSubgraph  // subgraph
	KindEnd       // end
	KindStyle     // style
	KindClassDef  // classDef
	KindClass     // class
	KindClick     // click
	KindDirection // direction
	KindTitle     // title
	KindDirCode   // TB, TD, BT, RL, LR (literal holds which)
)

var kindNames = map[Kind]string{
	KindEOF:            "EOF",
	KindNewline:        "newline",
	KindIdent:          "identifier",
	KindText:           "text",
	KindString:         "string",
	KindPipe:           "'|'",
	KindEdge:           "edge symbol",
	KindGT:             "'>'",
	KindLSquare:        "'['",
	KindRSquare:        "']'",
	KindLParen:         "'('",
	KindRParen:         "')'",
	KindLBrace:         "'{'",
	KindRBrace:         "'}'",
	KindDoubleLSquare:  "'[['",
	KindDoubleRSquare:  "']]'",
	KindDoubleLParen:   "'(('",
	KindDoubleRParen:   "'))'",
	KindTripleLParen:   "'((('",
	KindTripleRParen:   "')))'",
	KindDoubleLBrace:   "'{{'",
	KindDoubleRBrace:   "'}}'",
	KindSlashOpen:      "'[/'",
	KindBackslashOpen:  `'[\'`,
	KindSlashClose:     "'/]'",
	KindBackslashClose: `'\]'`,
	KindFlowchart:      "'flowchart'",
	KindGraph:          "'graph'",
	KindSubgraph:       "'subgraph'",
	KindEnd:            "'end'",
	KindStyle:          "'style'",
	KindClassDef:       "'classDef'",
	KindClass:          "'class'",
	KindClick:          "'click'",
	KindDirection:      "'direction'",
	KindTitle:          "'title'",
	KindDirCode:        "direction code",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Kind    Kind
	Literal string // text content (decoded for strings, raw for others)
	Pos     diag.Pos
}

// keywords maps reserved identifier text to keyword kinds. Recognition is by
// exact match against the identifier text, not a separate lexical class; the
// parser decides from syntactic position whether the keyword reading applies.
var keywords = map[string]Kind{
	"flowchart": KindFlowchart,
	"graph":     KindGraph,
	"subgraph":  KindSubgraph,
	"end":       KindEnd,
	"style":     KindStyle,
	"classDef":  KindClassDef,
	"class":     KindClass,
	"click":     KindClick,
	"direction": KindDirection,
	"title":     KindTitle,
	"TB":        KindDirCode,
	"TD":        KindDirCode,
	"BT":        KindDirCode,
	"RL":        KindDirCode,
	"LR":        KindDirCode,
}

// isKeyword reports whether k is one of the keyword kinds.
func isKeyword(k Kind) bool {
	return k >= KindFlowchart && k <= KindDirCode
}
