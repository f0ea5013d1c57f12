package flow

import (
	"strings"

	"github.com/matzehuels/mermaid/pkg/diag"
)

// =============================================================================
// Tree Assembler - Directive Resolution & Finalization
// =============================================================================

// assemble materializes the final diagram from the parser's fragments. The
// queued directives are drained in fixed order — classDef, class, style,
// click — so that inline style overrides always win over class-derived
// properties, and class names are appended rather than replaced.
//
// This is the only point where an unknown reference is an error: directives
// decorate existing nodes, so a style/click naming an undeclared identifier
// is a reference error (demotable to a warning under the lenient policy).
// A class assignment to an unknown node only warns under either policy.
// Subgraph containment is validated to be a tree; a cycle is a hard
// structural failure.
func assemble(frags *fragments, lenientRefs bool) (*Diagram, []diag.Warning, error) {
	warnings := frags.warnings

	d := &Diagram{
		Title:     frags.title,
		Direction: frags.direction,
		Nodes:     frags.nodes,
		Edges:     frags.edges,
		Subgraphs: frags.roots,
	}

	if err := checkSubgraphTree(frags.roots); err != nil {
		return nil, nil, err
	}

	refErr := func(kind, id string, pos diag.Pos) error {
		if lenientRefs {
			warnings = append(warnings, diag.Warningf(diag.WarnCodeReference, pos,
				"%s directive references unknown node %q", kind, id))
			return nil
		}
		return diag.New(diag.ErrCodeReference, pos,
			"%s directive references unknown node %q", kind, id).Expectation(id)
	}

	// classDef declares rather than references; it can never fail.
	if len(frags.classDefs) > 0 {
		d.Classes = make(map[string]ClassStyle, len(frags.classDefs))
		for _, def := range frags.classDefs {
			d.Classes[def.name] = ClassStyle{Name: def.name, Styles: parseStyleList(def.css)}
		}
	}

	for _, c := range frags.classes {
		for _, id := range c.nodes {
			n, ok := d.Nodes[id]
			if !ok {
				// A class list often names nodes that were edited away;
				// dropping the assignment loses styling, not structure.
				warnings = append(warnings, diag.Warningf(diag.WarnCodeReference, c.pos,
					"class directive references unknown node %q", id))
				continue
			}
			n.Classes = append(n.Classes, c.class)
		}
	}

	// Effective styles: class-derived properties first, in class order.
	for _, id := range frags.order {
		n := d.Nodes[id]
		for _, class := range n.Classes {
			if cs, ok := d.Classes[class]; ok {
				n.Styles = mergeStyles(n.Styles, cs.Styles)
			}
		}
	}

	// Inline style lines apply after class assignment; the last write per
	// property wins.
	for _, s := range frags.styles {
		n, ok := d.Nodes[s.target]
		if !ok {
			if err := refErr("style", s.target, s.pos); err != nil {
				return nil, nil, err
			}
			continue
		}
		n.Styles = mergeStyles(n.Styles, parseStyleList(s.css))
	}

	for _, c := range frags.clicks {
		if _, ok := d.Nodes[c.binding.NodeID]; !ok {
			if err := refErr("click", c.binding.NodeID, c.pos); err != nil {
				return nil, nil, err
			}
			continue
		}
		d.Clicks = append(d.Clicks, c.binding)
	}

	return d, warnings, nil
}

// parseStyleList splits "fill:#f9f,stroke:#333,stroke-width:4px" into a
// property map. Entries without a colon are ignored.
func parseStyleList(css string) map[string]string {
	styles := map[string]string{}
	for _, entry := range strings.Split(css, ",") {
		key, value, ok := strings.Cut(entry, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key != "" {
			styles[key] = value
		}
	}
	return styles
}

// mergeStyles overlays src onto dst, allocating dst on first use.
func mergeStyles(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// checkSubgraphTree verifies that subgraph containment is a tree by walking
// parent links for every subgraph. The parser's arena construction cannot
// produce a cycle on its own; this guards the invariant against diagrams
// assembled through other paths.
func checkSubgraphTree(roots []*Subgraph) error {
	parents := map[*Subgraph]*Subgraph{}

	var pending []*Subgraph
	pending = append(pending, roots...)
	seen := map[*Subgraph]bool{}
	for len(pending) > 0 {
		sg := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if seen[sg] {
			continue
		}
		seen[sg] = true
		for _, child := range sg.Subgraphs {
			if _, dup := parents[child]; !dup {
				parents[child] = sg
			}
			pending = append(pending, child)
		}
	}

	for sg := range seen {
		steps := 0
		for p := parents[sg]; p != nil; p = parents[p] {
			if p == sg || steps > len(seen) {
				return diag.New(diag.ErrCodeStructural, diag.Pos{},
					"subgraph %q is contained within itself", sg.ID)
			}
			steps++
		}
	}
	return nil
}
