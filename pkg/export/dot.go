// Package export converts parsed diagrams into external text formats.
// Only Graphviz DOT is provided; rendering the DOT output is left to
// external tooling.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/mermaid/pkg/flow"
)

// ToDOT converts a flowchart diagram to Graphviz DOT format. Subgraphs
// become DOT clusters, shapes and edge types are mapped to their closest
// Graphviz equivalents, and node styles are carried over as raw attributes
// where they translate.
func ToDOT(d *flow.Diagram) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir(d.Direction))
	if d.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n", d.Title)
		buf.WriteString("  labelloc=t;\n")
	}
	buf.WriteString("  node [shape=box];\n")
	buf.WriteString("\n")

	clustered := map[string]bool{}
	for i, sg := range d.Subgraphs {
		writeCluster(&buf, d, sg, i, 1, clustered)
	}

	for _, id := range d.NodeIDs() {
		if clustered[id] {
			continue
		}
		writeNode(&buf, d.Nodes[id], 1)
	}

	buf.WriteString("\n")
	for _, e := range d.Edges {
		fmt.Fprintf(&buf, "  %q -> %q%s;\n", e.From, e.To, edgeAttrs(e))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// writeCluster emits one subgraph as a DOT cluster, recursing into nested
// children. Each node is emitted inside its innermost cluster only.
func writeCluster(buf *bytes.Buffer, d *flow.Diagram, sg *flow.Subgraph, idx, depth int, clustered map[string]bool) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(buf, "%ssubgraph \"cluster_%d_%s\" {\n", indent, idx, sg.ID)
	title := sg.Title
	if title == "" {
		title = sg.ID
	}
	fmt.Fprintf(buf, "%s  label=%q;\n", indent, title)
	if sg.Direction != "" {
		fmt.Fprintf(buf, "%s  rankdir=%s;\n", indent, rankdir(sg.Direction))
	}

	for i, child := range sg.Subgraphs {
		writeCluster(buf, d, child, i, depth+1, clustered)
	}
	for _, id := range sg.Nodes {
		if n, ok := d.Node(id); ok && !clustered[id] {
			writeNode(buf, n, depth+1)
			clustered[id] = true
		}
	}

	fmt.Fprintf(buf, "%s}\n", indent)
}

func writeNode(buf *bytes.Buffer, n *flow.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	attrs := []string{
		fmt.Sprintf("label=%q", n.DisplayText()),
		fmt.Sprintf("shape=%s", dotShape(n.Shape)),
	}
	if fill, ok := n.Styles["fill"]; ok {
		attrs = append(attrs, "style=filled", fmt.Sprintf("fillcolor=%q", fill))
	}
	fmt.Fprintf(buf, "%s%q [%s];\n", indent, n.ID, strings.Join(attrs, ", "))
}

func edgeAttrs(e flow.Edge) string {
	var attrs []string
	if e.Label != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", e.Label))
	}

	switch e.Type {
	case flow.EdgeDottedArrow, flow.EdgeDottedLink:
		attrs = append(attrs, "style=dotted")
	case flow.EdgeThickArrow, flow.EdgeThickLink:
		attrs = append(attrs, "style=bold")
	case flow.EdgeInvisible:
		attrs = append(attrs, "style=invis")
	case flow.EdgeCircle:
		attrs = append(attrs, "arrowhead=odot")
	case flow.EdgeCross:
		attrs = append(attrs, "arrowhead=open")
	case flow.EdgeBidirectional:
		attrs = append(attrs, "dir=both")
	}
	switch e.Type {
	case flow.EdgeOpenLink, flow.EdgeDottedLink, flow.EdgeThickLink, flow.EdgeInvisible:
		attrs = append(attrs, "arrowhead=none")
	}
	if e.MinLength > 0 {
		attrs = append(attrs, fmt.Sprintf("minlen=%d", e.MinLength))
	}

	if len(attrs) == 0 {
		return ""
	}
	return " [" + strings.Join(attrs, ", ") + "]"
}

// dotShape maps flowchart shapes to their closest Graphviz node shape.
func dotShape(s flow.Shape) string {
	switch s {
	case flow.ShapeRoundedRectangle, flow.ShapeStadium:
		return "oval"
	case flow.ShapeSubroutine:
		return "box3d"
	case flow.ShapeCylinder:
		return "cylinder"
	case flow.ShapeCircle:
		return "circle"
	case flow.ShapeDoubleCircle:
		return "doublecircle"
	case flow.ShapeAsymmetric:
		return "cds"
	case flow.ShapeRhombus:
		return "diamond"
	case flow.ShapeHexagon:
		return "hexagon"
	case flow.ShapeParallelogram, flow.ShapeParallelogramAlt:
		return "parallelogram"
	case flow.ShapeTrapezoid:
		return "invtrapezium"
	case flow.ShapeTrapezoidAlt:
		return "trapezium"
	default:
		return "box"
	}
}

// rankdir maps a flow direction to the DOT rankdir attribute. TD is the
// mermaid alias for TB.
func rankdir(d flow.Direction) string {
	switch d {
	case flow.DirectionLR:
		return "LR"
	case flow.DirectionRL:
		return "RL"
	case flow.DirectionBT:
		return "BT"
	default:
		return "TB"
	}
}
