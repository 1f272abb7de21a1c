package bytesource

import (
	"sync"

	apperrors "github.com/classkit/pkg/errors"
)

// LazySource defers building its delegate until first use. The factory runs
// at most once; its error is remembered.
type LazySource struct {
	factory func() (Source, error)

	mu     sync.Mutex
	done   bool
	closed bool
	src    Source
	err    error
}

// NewLazySource creates a LazySource over factory.
func NewLazySource(factory func() (Source, error)) *LazySource {
	return &LazySource{factory: factory}
}

func (l *LazySource) delegate() (Source, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, apperrors.New(apperrors.CodeClosed, "lazy source closed")
	}
	if !l.done {
		l.src, l.err = l.factory()
		l.done = true
	}
	return l.src, l.err
}

// Get forwards to the delegate.
func (l *LazySource) Get(name string) ([]byte, error) {
	src, err := l.delegate()
	if err != nil {
		return nil, err
	}
	return src.Get(name)
}

// Enumerate forwards to the delegate.
func (l *LazySource) Enumerate() (map[string]Supplier, error) {
	src, err := l.delegate()
	if err != nil {
		return nil, err
	}
	return Enumerate(src)
}

// Initialized reports whether the delegate has been built.
func (l *LazySource) Initialized() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

// Close closes the delegate if it was built. Later calls are no-ops.
func (l *LazySource) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if l.done && l.err == nil {
		return Close(l.src)
	}
	return nil
}
