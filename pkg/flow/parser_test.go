package flow

import (
	"strings"
	"testing"

	"github.com/matzehuels/mermaid/pkg/diag"
)

func mustParse(t *testing.T, src string, opts ...Option) (*Diagram, []diag.Warning) {
	t.Helper()
	d, warnings, err := Parse(src, opts...)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return d, warnings
}

func warningCodes(warnings []diag.Warning) []diag.Code {
	out := make([]diag.Code, len(warnings))
	for i, w := range warnings {
		out[i] = w.Code
	}
	return out
}

func TestParseBasicChain(t *testing.T) {
	src := `flowchart TD
    A[Start] --> B{Decision}
    B -->|Yes| C[End]
`
	d, warnings := mustParse(t, src)

	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}
	if d.Direction != DirectionTD {
		t.Errorf("direction = %v, want TD", d.Direction)
	}
	if len(d.Nodes) != 3 {
		t.Fatalf("nodes = %v, want 3", d.NodeIDs())
	}
	if n, ok := d.Node("A"); !ok || n.Shape != ShapeRectangle || n.Text != "Start" {
		t.Errorf("node A = %+v", n)
	}
	if n, ok := d.Node("B"); !ok || n.Shape != ShapeRhombus || n.Text != "Decision" {
		t.Errorf("node B = %+v", n)
	}
	if n, ok := d.Node("C"); !ok || n.Shape != ShapeRectangle || n.Text != "End" {
		t.Errorf("node C = %+v", n)
	}

	if len(d.Edges) != 2 {
		t.Fatalf("edges = %+v, want 2", d.Edges)
	}
	first, second := d.Edges[0], d.Edges[1]
	if first.From != "A" || first.To != "B" || first.Type != EdgeArrow || first.Label != "" {
		t.Errorf("edge 0 = %+v", first)
	}
	if second.From != "B" || second.To != "C" || second.Type != EdgeArrow || second.Label != "Yes" {
		t.Errorf("edge 1 = %+v", second)
	}
}

func TestParseMultiHopChain(t *testing.T) {
	d, _ := mustParse(t, "flowchart LR\nA --> B --> C --> D\n")

	if len(d.Edges) != 3 {
		t.Fatalf("edges = %+v, want 3", d.Edges)
	}
	hops := [][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}}
	for i, hop := range hops {
		if d.Edges[i].From != hop[0] || d.Edges[i].To != hop[1] {
			t.Errorf("edge %d = %+v, want %s->%s", i, d.Edges[i], hop[0], hop[1])
		}
	}
}

func TestParseStubThenDeclaration(t *testing.T) {
	// B is first seen as a bare endpoint, then refined with an explicit shape.
	d, warnings := mustParse(t, "flowchart TD\nA --> B\nB((Ball))\n")

	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}
	if n, _ := d.Node("B"); n.Shape != ShapeCircle || n.Text != "Ball" {
		t.Errorf("node B = %+v, want refined circle", n)
	}
}

func TestParseDuplicateShapeWarning(t *testing.T) {
	d, warnings := mustParse(t, "flowchart TD\nA[First]\nA(Second)\n")

	if len(warnings) != 1 || warnings[0].Code != diag.WarnCodeDuplicateShape {
		t.Fatalf("warnings = %v, want one duplicate-shape warning", warnings)
	}
	if n, _ := d.Node("A"); n.Shape != ShapeRectangle || n.Text != "First" {
		t.Errorf("node A = %+v, first declaration must win", n)
	}
}

func TestParseUnknownLineRecovery(t *testing.T) {
	src := "flowchart TD\nA-->B\n???unknown\nB-->C\n"
	d, warnings := mustParse(t, src)

	if len(d.Edges) != 2 {
		t.Fatalf("edges = %+v, want both surviving edges", d.Edges)
	}
	if len(warnings) != 1 || warnings[0].Code != diag.WarnCodeUnknownLine {
		t.Fatalf("warnings = %v, want exactly one unknown-line warning", warnings)
	}
	if warnings[0].Pos.Line != 3 {
		t.Errorf("warning line = %d, want 3", warnings[0].Pos.Line)
	}
}

func TestParseMissingHeader(t *testing.T) {
	_, _, err := Parse("A --> B\n")
	if err == nil {
		t.Fatal("expected syntax error for missing header")
	}
	if !diag.Is(err, diag.ErrCodeSyntax) {
		t.Errorf("code = %v, want %v", diag.GetCode(err), diag.ErrCodeSyntax)
	}
}

func TestParseHeaderDirections(t *testing.T) {
	for _, dir := range []Direction{DirectionTB, DirectionTD, DirectionBT, DirectionRL, DirectionLR} {
		d, warnings := mustParse(t, "flowchart "+string(dir)+"\nA\n")
		if d.Direction != dir {
			t.Errorf("direction = %v, want %v", d.Direction, dir)
		}
		if len(warnings) != 0 {
			t.Errorf("warnings for %v = %v", dir, warnings)
		}
	}
}

func TestParseUnknownDirectionDefaults(t *testing.T) {
	d, warnings := mustParse(t, "flowchart XX\nA\n")

	if d.Direction != DirectionTD {
		t.Errorf("direction = %v, want TD fallback", d.Direction)
	}
	if len(warnings) != 1 || warnings[0].Code != diag.WarnCodeUnknownDirection {
		t.Fatalf("warnings = %v, want one unknown-direction warning", warnings)
	}
}

func TestParseTitle(t *testing.T) {
	d, _ := mustParse(t, "flowchart TD\ntitle Order Pipeline\nA --> B\n")
	if d.Title != "Order Pipeline" {
		t.Errorf("title = %q", d.Title)
	}
}

func TestParseKeywordAsNodeID(t *testing.T) {
	// Keywords in statement or endpoint position degrade to identifiers.
	d, warnings := mustParse(t, "flowchart TD\nstyle[Box] --> end1\nA --> class\n")

	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}
	if n, ok := d.Node("style"); !ok || n.Text != "Box" {
		t.Errorf("node style = %+v", n)
	}
	if _, ok := d.Node("class"); !ok {
		t.Errorf("node class missing: %v", d.NodeIDs())
	}
}

func TestParseSubgraphs(t *testing.T) {
	src := `flowchart TD
    subgraph one [Group One]
        direction LR
        A --> B
    end
    subgraph two
        C
    end
    B --> C
`
	d, warnings := mustParse(t, src)

	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}
	if len(d.Subgraphs) != 2 {
		t.Fatalf("subgraphs = %+v, want 2", d.Subgraphs)
	}

	one := d.Subgraphs[0]
	if one.ID != "one" || one.Title != "Group One" || one.Direction != DirectionLR {
		t.Errorf("subgraph one = %+v", one)
	}
	if len(one.Nodes) != 2 || one.Nodes[0] != "A" || one.Nodes[1] != "B" {
		t.Errorf("subgraph one nodes = %v", one.Nodes)
	}
	if len(one.Edges) != 1 || one.Edges[0].From != "A" {
		t.Errorf("subgraph one edges = %+v", one.Edges)
	}

	two := d.Subgraphs[1]
	if two.ID != "two" || two.Title != "" {
		t.Errorf("subgraph two = %+v", two)
	}
	if len(two.Nodes) != 1 || two.Nodes[0] != "C" {
		t.Errorf("subgraph two nodes = %v", two.Nodes)
	}

	// The cross-subgraph edge belongs to the flat list only.
	if len(d.Edges) != 2 {
		t.Errorf("edges = %+v, want 2", d.Edges)
	}
}

func TestParseNestedSubgraphDepth(t *testing.T) {
	const depth = 5
	var sb strings.Builder
	sb.WriteString("flowchart TD\n")
	for i := 0; i < depth; i++ {
		sb.WriteString("subgraph level")
		sb.WriteByte(byte('0' + i))
		sb.WriteString("\n")
	}
	sb.WriteString("A\n")
	for i := 0; i < depth; i++ {
		sb.WriteString("end\n")
	}

	d, warnings := mustParse(t, sb.String())
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}
	if len(d.Subgraphs) != 1 {
		t.Fatalf("roots = %+v, want 1", d.Subgraphs)
	}
	if got := d.Subgraphs[0].Depth(); got != depth {
		t.Errorf("depth = %d, want %d", got, depth)
	}

	inner := d.Subgraphs[0]
	for len(inner.Subgraphs) > 0 {
		inner = inner.Subgraphs[0]
	}
	if len(inner.Nodes) != 1 || inner.Nodes[0] != "A" {
		t.Errorf("innermost nodes = %v, want [A]", inner.Nodes)
	}
}

func TestParseUnterminatedSubgraph(t *testing.T) {
	_, _, err := Parse("flowchart TD\nsubgraph outer\nsubgraph inner\nA\nend\n")
	if err == nil {
		t.Fatal("expected structural error for unterminated subgraph")
	}
	if !diag.Is(err, diag.ErrCodeStructural) {
		t.Errorf("code = %v, want %v", diag.GetCode(err), diag.ErrCodeStructural)
	}
	if !strings.Contains(err.Error(), `"outer"`) {
		t.Errorf("error %q does not name the outermost open subgraph", err)
	}
}

func TestParseStrayEnd(t *testing.T) {
	d, warnings := mustParse(t, "flowchart TD\nA\nend\nB\n")

	if len(warnings) != 1 || warnings[0].Code != diag.WarnCodeStrayEnd {
		t.Fatalf("warnings = %v, want one stray-end warning", warnings)
	}
	if len(d.Nodes) != 2 {
		t.Errorf("nodes = %v, want parsing to continue past the stray end", d.NodeIDs())
	}
}

func TestParseMisplacedDirection(t *testing.T) {
	_, warnings := mustParse(t, "flowchart TD\ndirection LR\nA\n")

	if len(warnings) != 1 || warnings[0].Code != diag.WarnCodeMisplacedDirection {
		t.Fatalf("warnings = %v, want one misplaced-direction warning", warnings)
	}
}

func TestParseEdgeVariants(t *testing.T) {
	tests := []struct {
		line string
		typ  EdgeType
		min  int
	}{
		{"A --> B", EdgeArrow, 0},
		{"A ---> B", EdgeArrow, 2},
		{"A --- B", EdgeOpenLink, 0},
		{"A -.- B", EdgeDottedLink, 0},
		{"A -.-> B", EdgeDottedArrow, 0},
		{"A ==> B", EdgeThickArrow, 0},
		{"A === B", EdgeThickLink, 0},
		{"A ~~~ B", EdgeInvisible, 0},
		{"A --o B", EdgeCircle, 0},
		{"A --x B", EdgeCross, 0},
		{"A <--> B", EdgeBidirectional, 0},
		{"A-->B", EdgeArrow, 0},
		{"A--oB", EdgeCircle, 0},
		{"A--xB", EdgeCross, 0},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			d, warnings := mustParse(t, "flowchart TD\n"+tt.line+"\n")
			if len(warnings) != 0 {
				t.Fatalf("warnings = %v", warnings)
			}
			if len(d.Edges) != 1 {
				t.Fatalf("edges = %+v, want 1", d.Edges)
			}
			e := d.Edges[0]
			if e.Type != tt.typ {
				t.Errorf("type = %v, want %v", e.Type, tt.typ)
			}
			if e.MinLength != tt.min {
				t.Errorf("min length = %d, want %d", e.MinLength, tt.min)
			}
		})
	}
}

func TestParseClick(t *testing.T) {
	src := `flowchart TD
    A
    B
    C
    click A "https://example.com" _blank
    click B callback "Runs the callback"
    click C href "https://example.com/docs"
`
	d, warnings := mustParse(t, src)

	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}
	if len(d.Clicks) != 3 {
		t.Fatalf("clicks = %+v, want 3", d.Clicks)
	}

	a := d.Clicks[0]
	if a.NodeID != "A" || a.Href != "https://example.com" || a.Target != "_blank" {
		t.Errorf("click A = %+v", a)
	}
	b := d.Clicks[1]
	if b.NodeID != "B" || b.Callback != "callback" || b.Tooltip != "Runs the callback" {
		t.Errorf("click B = %+v", b)
	}
	c := d.Clicks[2]
	if c.NodeID != "C" || c.Href != "https://example.com/docs" {
		t.Errorf("click C = %+v", c)
	}
}

func TestParseIdempotent(t *testing.T) {
	src := `flowchart LR
    A[Start] --> B((Mid)) -.-> C{End}
    subgraph grp
        D
    end
    style A fill:#f9f
`
	first, firstWarn := mustParse(t, src)
	second, secondWarn := mustParse(t, src)

	if len(firstWarn) != len(secondWarn) {
		t.Fatalf("warning counts differ: %d vs %d", len(firstWarn), len(secondWarn))
	}
	firstIDs, secondIDs := first.NodeIDs(), second.NodeIDs()
	if len(firstIDs) != len(secondIDs) {
		t.Fatalf("node counts differ: %v vs %v", firstIDs, secondIDs)
	}
	for i := range firstIDs {
		if firstIDs[i] != secondIDs[i] {
			t.Errorf("node order differs at %d: %q vs %q", i, firstIDs[i], secondIDs[i])
		}
	}
	if len(first.Edges) != len(second.Edges) {
		t.Fatalf("edge counts differ")
	}
	for i := range first.Edges {
		if first.Edges[i] != second.Edges[i] {
			t.Errorf("edge %d differs: %+v vs %+v", i, first.Edges[i], second.Edges[i])
		}
	}
}
