package domain

import (
	"fmt"
	"io"
	"maps"
)

// Opener opens a fresh handle onto a resource's bytes.
// Each call returns an independent reader that the caller must close.
type Opener func() (io.ReadCloser, error)

// Splitter breaks text into chunks.
type Splitter interface {
	Split(text string) []string
}

// Validator checks a resource's content against the rules for its kind.
// Implementations return a *ValidationError on rejection.
type Validator interface {
	Validate(res *Resource, content []byte) error
}

// Resource is a single addressable unit of content discovered by a loader.
// Exactly one of in-memory content or an opener backs it.
type Resource struct {
	// ID is the loader-assigned identifier, usually "<loader slug>:<address>".
	ID string

	// Address is where the resource came from.
	Address Address

	// Kind classifies the resource.
	Kind Kind

	// Metadata carries loader and sidecar metadata.
	Metadata map[string]any

	content   []byte
	opener    Opener
	validated bool
}

// NewResource creates a resource backed by either content or opener.
// Supplying both, or neither, is rejected.
func NewResource(addr Address, kind Kind, content []byte, opener Opener, metadata map[string]any) (*Resource, error) {
	if (content == nil) == (opener == nil) {
		return nil, fmt.Errorf("%w: resource %s needs exactly one of content or handle", ErrInvalidAddress, addr)
	}
	if kind == "" {
		kind = KindGeneric
	}
	if metadata == nil {
		metadata = make(map[string]any)
	}
	return &Resource{
		Address:  addr,
		Kind:     kind,
		Metadata: metadata,
		content:  content,
		opener:   opener,
	}, nil
}

// Read returns the resource's full content.
// Handle-backed resources open and drain a fresh handle on every call.
func (r *Resource) Read() ([]byte, error) {
	if r.content != nil {
		return r.content, nil
	}
	rc, err := r.opener()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", r.Address, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", r.Address, err)
	}
	return data, nil
}

// InMemory reports whether the resource holds its content directly.
func (r *Resource) InMemory() bool {
	return r.content != nil
}

// Validated reports whether the resource has already passed validation.
func (r *Resource) Validated() bool {
	return r.validated
}

// DefaultPartition returns the partition for this resource's kind.
func (r *Resource) DefaultPartition() string {
	return r.Kind.DefaultPartition()
}

// Validate runs validator against the resource once. A nil validator falls
// back to the one registered for the resource's kind.
// Later calls are no-ops after a successful validation.
func (r *Resource) Validate(validator Validator) error {
	validator = r.validatorFor(validator)
	if validator == nil || r.validated {
		return nil
	}
	content, err := r.Read()
	if err != nil {
		return err
	}
	if err := validator.Validate(r, content); err != nil {
		return err
	}
	r.validated = true
	return nil
}

// AsRecords converts the resource into records, one per chunk.
// Content is read once. A nil splitter yields a single record holding the
// whole content. A nil validator falls back to the kind's registered one.
// Record IDs are "<resource id>:<n>" numbered from 1.
func (r *Resource) AsRecords(splitter Splitter, validator Validator) ([]Record, error) {
	validator = r.validatorFor(validator)
	content, err := r.Read()
	if err != nil {
		return nil, err
	}
	if validator != nil && !r.validated {
		if err := validator.Validate(r, content); err != nil {
			return nil, err
		}
		r.validated = true
	}

	text := string(content)
	chunks := []string{text}
	if splitter != nil {
		chunks = splitter.Split(text)
	}

	id := r.ID
	if id == "" {
		id = r.Address.String()
	}

	records := make([]Record, 0, len(chunks))
	for i, chunk := range chunks {
		records = append(records, Record{
			ID:       fmt.Sprintf("%s:%d", id, i+1),
			Content:  chunk,
			Address:  r.Address,
			Metadata: maps.Clone(r.Metadata),
		})
	}
	return records, nil
}

func (r *Resource) validatorFor(v Validator) Validator {
	if v != nil {
		return v
	}
	return r.Kind.Validator()
}
