// Package flow parses mermaid flowchart ("flowchart"/"graph") diagram text
// into a strongly-typed abstract syntax tree.
//
// The pipeline has three stages: a maximal-munch tokenizer, a single-pass
// statement parser with an explicit subgraph context stack, and a tree
// assembler that resolves queued style/class/click directives against the
// parsed node table. No rendering or layout is performed.
//
// # Usage
//
//	d, warnings, err := flow.Parse(src)
//	if err != nil {
//	    // hard failure: lexical, structural, or reference error
//	}
//	for _, w := range warnings {
//	    // recoverable deviations (skipped lines, duplicate shapes, ...)
//	}
//	fmt.Println(d.Direction, len(d.Nodes), len(d.Edges))
//
// Parsing one diagram is synchronous and owns all of its state, so distinct
// diagrams are safe to parse concurrently.
package flow

import (
	"slices"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Direction is a flow direction code.
type Direction string

// Flow directions.
const (
	DirectionTB Direction = "TB" // top to bottom
	DirectionTD Direction = "TD" // top down (alias of TB)
	DirectionBT Direction = "BT" // bottom to top
	DirectionRL Direction = "RL" // right to left
	DirectionLR Direction = "LR" // left to right
)

// Shape is a node shape tag.
type Shape string

// Node shapes and the bracket pairs that denote them.
const (
	ShapeRectangle        Shape = "rectangle"         // [text]
	ShapeRoundedRectangle Shape = "rounded_rectangle" // (text)
	ShapeStadium          Shape = "stadium"           // ([text])
	ShapeSubroutine       Shape = "subroutine"        // [[text]]
	ShapeCylinder         Shape = "cylinder"          // [(text)]
	ShapeCircle           Shape = "circle"            // ((text))
	ShapeDoubleCircle     Shape = "double_circle"     // (((text)))
	ShapeAsymmetric       Shape = "asymmetric"        // >text]
	ShapeRhombus          Shape = "rhombus"           // {text}
	ShapeHexagon          Shape = "hexagon"           // {{text}}
	ShapeParallelogram    Shape = "parallelogram"     // [/text/]
	ShapeParallelogramAlt Shape = "parallelogram_alt" // [\text\]
	ShapeTrapezoid        Shape = "trapezoid"         // [/text\]
	ShapeTrapezoidAlt     Shape = "trapezoid_alt"     // [\text/]
)

// EdgeType is an edge line-symbol tag.
type EdgeType string

// Edge types and the symbols that denote them.
const (
	EdgeArrow         EdgeType = "arrow"          // -->
	EdgeDottedArrow   EdgeType = "dotted_arrow"   // -.->
	EdgeThickArrow    EdgeType = "thick_arrow"    // ==>
	EdgeOpenLink      EdgeType = "open_link"      // ---
	EdgeDottedLink    EdgeType = "dotted_link"    // -.-
	EdgeThickLink     EdgeType = "thick_link"     // ===
	EdgeInvisible     EdgeType = "invisible"      // ~~~
	EdgeCircle        EdgeType = "circle"         // --o
	EdgeCross         EdgeType = "cross"          // --x
	EdgeBidirectional EdgeType = "bidirectional"  // <-->
)

// =============================================================================
// Diagram - Assembled Flowchart
// =============================================================================

// Diagram is the root value produced by a successful parse. It is immutable
// once returned by the assembler; callers that need a modified diagram must
// re-parse or copy.
//
// Nodes are keyed by identifier for O(1) lookup; use NodeIDs for
// deterministic iteration order.
type Diagram struct {
	Title     string                `json:"title,omitempty" bson:"title,omitempty"`
	Direction Direction             `json:"direction" bson:"direction"`
	Nodes     map[string]*Node      `json:"nodes" bson:"nodes"`
	Edges     []Edge                `json:"edges" bson:"edges"`
	Subgraphs []*Subgraph           `json:"subgraphs,omitempty" bson:"subgraphs,omitempty"`
	Classes   map[string]ClassStyle `json:"classes,omitempty" bson:"classes,omitempty"`
	Clicks    []ClickBinding        `json:"clicks,omitempty" bson:"clicks,omitempty"`
}

// NodeIDs returns all node identifiers sorted for deterministic output.
func (d *Diagram) NodeIDs() []string {
	ids := make([]string, 0, len(d.Nodes))
	for id := range d.Nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Node looks up a node by identifier.
func (d *Diagram) Node(id string) (*Node, bool) {
	n, ok := d.Nodes[id]
	return n, ok
}

// =============================================================================
// Node - Named Shape
// =============================================================================

// Node is a named shape in the diagram graph. The identifier is the only
// required field: a node first mentioned as an edge endpoint is auto-created
// as a default rectangle stub and refined by a later explicit declaration.
type Node struct {
	ID      string            `json:"id" bson:"id"`
	Text    string            `json:"text,omitempty" bson:"text,omitempty"`   // display text (defaults to ID when empty)
	Shape   Shape             `json:"shape" bson:"shape"`                     // rectangle for stubs
	Classes []string          `json:"classes,omitempty" bson:"classes,omitempty"`
	Icon    string            `json:"icon,omitempty" bson:"icon,omitempty"`   // fa:fa-xxx reference
	Styles  map[string]string `json:"styles,omitempty" bson:"styles,omitempty"` // effective style after assembly
}

// DisplayText returns the text if set, otherwise the ID.
func (n *Node) DisplayText() string {
	if n.Text != "" {
		return n.Text
	}
	return n.ID
}

// =============================================================================
// Edge - Directed Connection
// =============================================================================

// Edge is a connection between two node identifiers. Endpoints may have been
// auto-created as stubs. MinLength is a layout hint from elongated symbols
// (e.g. "--->"); zero means no hint.
type Edge struct {
	From      string   `json:"from" bson:"from"`
	To        string   `json:"to" bson:"to"`
	Type      EdgeType `json:"type" bson:"type"`
	Label     string   `json:"label,omitempty" bson:"label,omitempty"`
	MinLength int      `json:"min_length,omitempty" bson:"min_length,omitempty"`
}

// =============================================================================
// Subgraph - Nested Grouping
// =============================================================================

// Subgraph is a named grouping of nodes and edges. Containment forms a tree:
// a subgraph is never its own ancestor. Nodes and edges parsed inside a
// subgraph are recorded both here and in the diagram-wide tables.
type Subgraph struct {
	ID        string      `json:"id" bson:"id"`
	Title     string      `json:"title,omitempty" bson:"title,omitempty"`
	Direction Direction   `json:"direction,omitempty" bson:"direction,omitempty"` // set by a direction statement in the body
	Nodes     []string    `json:"nodes,omitempty" bson:"nodes,omitempty"`         // directly owned node IDs
	Edges     []Edge      `json:"edges,omitempty" bson:"edges,omitempty"`         // edges scoped to this subgraph
	Subgraphs []*Subgraph `json:"subgraphs,omitempty" bson:"subgraphs,omitempty"` // nested children
}

// Depth returns the depth of the subgraph tree rooted here (1 for a leaf).
func (s *Subgraph) Depth() int {
	max := 0
	for _, child := range s.Subgraphs {
		if d := child.Depth(); d > max {
			max = d
		}
	}
	return max + 1
}

// =============================================================================
// Styling & Interaction
// =============================================================================

// ClassStyle is a reusable named style bundle declared with classDef.
type ClassStyle struct {
	Name   string            `json:"name" bson:"name"`
	Styles map[string]string `json:"styles" bson:"styles"`
}

// ClickBinding attaches interactivity to a node: an external link, a named
// callback, or both.
type ClickBinding struct {
	NodeID   string `json:"node_id" bson:"node_id"`
	Href     string `json:"href,omitempty" bson:"href,omitempty"`
	Target   string `json:"target,omitempty" bson:"target,omitempty"` // link target window
	Callback string `json:"callback,omitempty" bson:"callback,omitempty"`
	Tooltip  string `json:"tooltip,omitempty" bson:"tooltip,omitempty"`
}
