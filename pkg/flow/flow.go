package flow

import "github.com/matzehuels/mermaid/pkg/diag"

// Option configures a parse call.
type Option func(*options)

type options struct {
	lenientRefs bool
}

// WithLenientReferences demotes reference errors (style/class/click
// directives naming an undeclared node) from hard failures to collected
// warnings. The default policy is strict.
func WithLenientReferences() Option {
	return func(o *options) { o.lenientRefs = true }
}

// Parse parses flowchart source text into a Diagram.
//
// On success the returned warnings list carries any recoverable deviations
// (skipped lines, duplicate shape declarations). On a hard failure — lexical
// dead-end, structural error, or a reference error under the strict policy —
// the error is a *diag.Error and no partial diagram is returned.
//
// Parse owns all of its state; distinct calls are safe to run concurrently.
func Parse(src string, opts ...Option) (*Diagram, []diag.Warning, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	tokens, err := Tokenize(src)
	if err != nil {
		return nil, nil, err
	}

	frags, err := runParser(tokens)
	if err != nil {
		return nil, nil, err
	}

	return assemble(frags, o.lenientRefs)
}
