package export

import (
	"strings"
	"testing"

	"github.com/matzehuels/mermaid/pkg/flow"
)

func parseFixture(t *testing.T, src string) *flow.Diagram {
	t.Helper()
	d, _, err := flow.Parse(src)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return d
}

func TestToDOTBasic(t *testing.T) {
	d := parseFixture(t, "flowchart LR\nA[Start] --> B{Decision}\nB -->|Yes| C\n")
	dot := ToDOT(d)

	if !strings.HasPrefix(dot, "digraph G {") {
		t.Errorf("missing digraph header:\n%s", dot)
	}
	if !strings.Contains(dot, "rankdir=LR;") {
		t.Errorf("missing rankdir:\n%s", dot)
	}
	if !strings.Contains(dot, `"A" [label="Start", shape=box];`) {
		t.Errorf("missing node A:\n%s", dot)
	}
	if !strings.Contains(dot, `"B" [label="Decision", shape=diamond];`) {
		t.Errorf("missing node B:\n%s", dot)
	}
	if !strings.Contains(dot, `"A" -> "B";`) {
		t.Errorf("missing edge A->B:\n%s", dot)
	}
	if !strings.Contains(dot, `"B" -> "C" [label="Yes"];`) {
		t.Errorf("missing labelled edge:\n%s", dot)
	}
	if !strings.HasSuffix(dot, "}\n") {
		t.Errorf("missing closing brace:\n%s", dot)
	}
}

func TestToDOTTitle(t *testing.T) {
	d := parseFixture(t, "flowchart TD\ntitle My Pipeline\nA --> B\n")
	dot := ToDOT(d)

	if !strings.Contains(dot, `label="My Pipeline";`) {
		t.Errorf("missing title label:\n%s", dot)
	}
	if !strings.Contains(dot, "labelloc=t;") {
		t.Errorf("missing labelloc:\n%s", dot)
	}
}

func TestToDOTEdgeStyles(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"A -.-> B", "style=dotted"},
		{"A ==> B", "style=bold"},
		{"A ~~~ B", "style=invis"},
		{"A --- B", "arrowhead=none"},
		{"A --o B", "arrowhead=odot"},
		{"A <--> B", "dir=both"},
		{"A ---> B", "minlen=2"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			d := parseFixture(t, "flowchart TD\n"+tt.line+"\n")
			dot := ToDOT(d)
			if !strings.Contains(dot, tt.want) {
				t.Errorf("DOT for %q missing %q:\n%s", tt.line, tt.want, dot)
			}
		})
	}
}

func TestToDOTClusters(t *testing.T) {
	src := `flowchart TD
    subgraph grp [Group Title]
        A --> B
    end
    B --> C
`
	dot := ToDOT(parseFixture(t, src))

	if !strings.Contains(dot, `subgraph "cluster_0_grp" {`) {
		t.Errorf("missing cluster:\n%s", dot)
	}
	if !strings.Contains(dot, `label="Group Title";`) {
		t.Errorf("missing cluster label:\n%s", dot)
	}

	// Clustered nodes are emitted inside the cluster, not at top level.
	clusterBody := dot[strings.Index(dot, "cluster_0_grp"):]
	clusterBody = clusterBody[:strings.Index(clusterBody, "}")]
	if !strings.Contains(clusterBody, `"A" [`) || !strings.Contains(clusterBody, `"B" [`) {
		t.Errorf("cluster should own its nodes:\n%s", dot)
	}
	if strings.Count(dot, `"A" [`) != 1 {
		t.Errorf("node A emitted more than once:\n%s", dot)
	}
}

func TestToDOTStyledNode(t *testing.T) {
	d := parseFixture(t, "flowchart TD\nA\nstyle A fill:#f9f\n")
	dot := ToDOT(d)

	if !strings.Contains(dot, `style=filled, fillcolor="#f9f"`) {
		t.Errorf("missing fill translation:\n%s", dot)
	}
}
