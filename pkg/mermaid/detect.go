package mermaid

import (
	"strings"

	"github.com/matzehuels/mermaid/pkg/diag"
)

// Grammar identifies a mermaid diagram family by its header keyword.
type Grammar string

// Known diagram grammars.
const (
	GrammarFlowchart    Grammar = "flowchart"
	GrammarSequence     Grammar = "sequence"
	GrammarClass        Grammar = "class"
	GrammarState        Grammar = "state"
	GrammarER           Grammar = "er"
	GrammarGantt        Grammar = "gantt"
	GrammarPie          Grammar = "pie"
	GrammarGit          Grammar = "git"
	GrammarC4           Grammar = "c4"
	GrammarMindmap      Grammar = "mindmap"
	GrammarTimeline     Grammar = "timeline"
	GrammarSankey       Grammar = "sankey"
	GrammarXYChart      Grammar = "xychart"
	GrammarBlock        Grammar = "block"
	GrammarPacket       Grammar = "packet"
	GrammarArchitecture Grammar = "architecture"
	GrammarJourney      Grammar = "journey"
	GrammarQuadrant     Grammar = "quadrant"
	GrammarKanban       Grammar = "kanban"
	GrammarRequirement  Grammar = "requirement"
	GrammarTreemap      Grammar = "treemap"
	GrammarRadar        Grammar = "radar"
	GrammarInfo         Grammar = "info"
)

// headerTable maps lowercase header prefixes to grammars. Order is
// load-bearing where one header is a prefix of another: "architecture"
// covers "architecture-beta", "quadrant" covers "quadrantchart", and so on,
// but "flowchart" must be tried before shorter generic prefixes.
var headerTable = []struct {
	prefix  string
	grammar Grammar
}{
	{"architecture", GrammarArchitecture},
	{"flowchart", GrammarFlowchart},
	{"graph", GrammarFlowchart},
	{"sequencediagram", GrammarSequence},
	{"statediagram", GrammarState},
	{"classdiagram", GrammarClass},
	{"erdiagram", GrammarER},
	{"gantt", GrammarGantt},
	{"pie", GrammarPie},
	{"gitgraph", GrammarGit},
	{"c4context", GrammarC4},
	{"c4container", GrammarC4},
	{"c4component", GrammarC4},
	{"c4dynamic", GrammarC4},
	{"c4deployment", GrammarC4},
	{"mindmap", GrammarMindmap},
	{"timeline", GrammarTimeline},
	{"sankey", GrammarSankey},
	{"xychart", GrammarXYChart},
	{"block", GrammarBlock},
	{"packet", GrammarPacket},
	{"journey", GrammarJourney},
	{"quadrant", GrammarQuadrant},
	{"kanban", GrammarKanban},
	{"requirement", GrammarRequirement},
	{"treemap", GrammarTreemap},
	{"radar", GrammarRadar},
	{"info", GrammarInfo},
}

// Detect identifies the diagram grammar from the first contentful line of
// src. Blank lines and %% comment lines before the header are skipped.
//
// Returns diag.ErrCodeEmptyInput when no contentful line exists and
// diag.ErrCodeUnknownDiagram when the header matches no known grammar.
func Detect(src string) (Grammar, error) {
	header, line, ok := headerLine(src)
	if !ok {
		return "", diag.New(diag.ErrCodeEmptyInput, diag.Pos{},
			"input contains no diagram content")
	}

	lowered := strings.ToLower(header)
	for _, entry := range headerTable {
		if strings.HasPrefix(lowered, entry.prefix) {
			return entry.grammar, nil
		}
	}
	return "", diag.New(diag.ErrCodeUnknownDiagram, diag.Pos{Line: line, Column: 1},
		"header %q matches no known diagram grammar", firstWord(header)).
		Expectation(firstWord(header))
}

// headerLine returns the first line that is neither blank nor a comment,
// with its 1-based line number.
func headerLine(src string) (string, int, bool) {
	line := 0
	for len(src) > 0 {
		line++
		raw, rest, _ := strings.Cut(src, "\n")
		src = rest

		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "%%") || strings.HasPrefix(trimmed, "//") {
			continue
		}
		return trimmed, line, true
	}
	return "", 0, false
}

func firstWord(s string) string {
	if fields := strings.Fields(s); len(fields) > 0 {
		return fields[0]
	}
	return s
}
