package bytesource

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	apperrors "github.com/classkit/pkg/errors"
)

// ChainSource tries its delegates left to right. It does not own them and
// has no Close.
type ChainSource struct {
	sources []Source
}

// NewChainSource creates a chain over sources.
func NewChainSource(sources ...Source) *ChainSource {
	return &ChainSource{sources: append([]Source(nil), sources...)}
}

// Then returns a new chain that consults next after the receiver's
// delegates.
func (c *ChainSource) Then(next Source) *ChainSource {
	sources := make([]Source, 0, len(c.sources)+1)
	sources = append(sources, c.sources...)
	return &ChainSource{sources: append(sources, next)}
}

// Sources returns the delegates in lookup order.
func (c *ChainSource) Sources() []Source {
	return append([]Source(nil), c.sources...)
}

// Get returns the first successful delegate result. It fails only when
// every delegate fails; the error matches ErrNotFound and carries each
// delegate's error.
func (c *ChainSource) Get(name string) ([]byte, error) {
	var errs *multierror.Error
	for _, src := range c.sources {
		data, err := src.Get(name)
		if err == nil {
			return data, nil
		}
		errs = multierror.Append(errs, err)
	}
	return nil, apperrors.Wrap(apperrors.CodeNotFound,
		fmt.Sprintf("class %s not found in %d sources", name, len(c.sources)), errs.ErrorOrNil())
}

// Enumerate merges the listings of every enumerable delegate; earlier
// delegates win on duplicate names. It fails with ErrUnsupported only when
// no delegate can enumerate.
func (c *ChainSource) Enumerate() (map[string]Supplier, error) {
	merged := make(map[string]Supplier)
	supported := false
	for _, src := range c.sources {
		entries, err := Enumerate(src)
		if apperrors.IsUnsupported(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		supported = true
		for name, supplier := range entries {
			if _, ok := merged[name]; !ok {
				merged[name] = supplier
			}
		}
	}
	if !supported {
		return nil, apperrors.New(apperrors.CodeUnsupported, "no source in the chain supports enumeration")
	}
	return merged, nil
}
