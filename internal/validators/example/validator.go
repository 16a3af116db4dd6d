// Package example validates example resources.
//
// An example is a markdown document organised into sections, one per
// heading. Sections without any content below their heading are ignored.
// A valid example has at least one section and one of them is titled
// "Description".
//
// Importing the package registers the validator for domain.KindExample, so
// every example resource is checked whichever embedder produces its records.
package example

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
)

// RequiredSection is the heading every example must carry.
const RequiredSection = "Description"

func init() {
	domain.RegisterKindValidator(domain.KindExample, New())
}

// Validator checks example structure.
type Validator struct {
	md       goldmark.Markdown
	required []string
}

// Option configures the validator.
type Option func(*Validator)

// WithRequiredSections replaces the list of mandatory headings.
func WithRequiredSections(names ...string) Option {
	return func(v *Validator) {
		v.required = names
	}
}

// New creates an example validator.
func New(opts ...Option) *Validator {
	v := &Validator{
		md:       goldmark.New(),
		required: []string{RequiredSection},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

var _ domain.Validator = (*Validator)(nil)

// Validate implements domain.Validator.
func (v *Validator) Validate(res *domain.Resource, content []byte) error {
	addr := ""
	if res != nil {
		addr = res.Address.String()
	}
	if !utf8.Valid(content) {
		return &domain.ValidationError{Address: addr, Reason: "content is not valid UTF-8 text"}
	}

	sections := v.Sections(content)
	if len(sections) == 0 {
		return &domain.ValidationError{Address: addr, Reason: "example is empty or does not meet expected format"}
	}
	for _, name := range v.required {
		if _, ok := sections[name]; !ok {
			return &domain.ValidationError{Address: addr, Reason: "missing required '" + name + "' section"}
		}
	}
	return nil
}

// Sections returns the non-empty sections of a markdown document keyed by
// heading text. The value is the section body as it appears in the source.
// Content before the first heading belongs to no section.
func (v *Validator) Sections(content []byte) map[string]string {
	doc := v.md.Parser().Parse(text.NewReader(content))

	bodies := make(map[string]*bytes.Buffer)
	current := ""
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			current = headingText(h, content)
			if _, seen := bodies[current]; !seen {
				bodies[current] = &bytes.Buffer{}
			}
			continue
		}
		if current == "" {
			continue
		}
		writeBlock(bodies[current], n, content)
	}

	sections := make(map[string]string, len(bodies))
	for name, body := range bodies {
		if s := strings.TrimSpace(body.String()); s != "" {
			sections[name] = s
		}
	}
	return sections
}

func headingText(h *ast.Heading, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(h, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// writeBlock copies the source lines of a block node, descending into
// containers such as lists and block quotes that carry no lines themselves.
func writeBlock(dst *bytes.Buffer, n ast.Node, source []byte) {
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			dst.Write(seg.Value(source))
		}
		dst.WriteByte('\n')
		return
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		writeBlock(dst, c, source)
	}
}
