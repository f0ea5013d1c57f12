// Package mermaid is the front door for parsing mermaid diagram text. It
// detects the diagram grammar from the header line and dispatches to the
// grammar's parser.
//
// Flowchart ("flowchart"/"graph") diagrams are fully supported through
// pkg/flow. The remaining grammars are recognized by Detect but have no
// parser wired in; parsing one returns diag.ErrCodeUnsupportedDiagram so
// callers can distinguish "not mermaid" from "not implemented".
package mermaid

import (
	"github.com/matzehuels/mermaid/pkg/diag"
	"github.com/matzehuels/mermaid/pkg/flow"
)

// Result is a parsed diagram together with its detected grammar and any
// recoverable deviations collected during the parse.
type Result struct {
	Grammar  Grammar        `json:"grammar" bson:"grammar"`
	Diagram  *flow.Diagram  `json:"diagram" bson:"diagram"`
	Warnings []diag.Warning `json:"warnings,omitempty" bson:"warnings,omitempty"`
}

// Parse detects the grammar of src and parses it into a diagram.
//
// Options are forwarded to the grammar parser. Empty input, an unknown
// header, and a recognized-but-unsupported grammar are distinct hard
// failures; see the diag error codes.
func Parse(src string, opts ...flow.Option) (*Result, error) {
	grammar, err := Detect(src)
	if err != nil {
		return nil, err
	}

	if grammar != GrammarFlowchart {
		return nil, diag.New(diag.ErrCodeUnsupportedDiagram, diag.Pos{},
			"%s diagrams are recognized but not supported", grammar)
	}

	d, warnings, err := flow.Parse(src, opts...)
	if err != nil {
		return nil, err
	}
	return &Result{Grammar: grammar, Diagram: d, Warnings: warnings}, nil
}
