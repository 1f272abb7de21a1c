package bytesource

import (
	"io"
	"sync"

	"github.com/classkit/pkg/utils"
)

// Instrumentation is the host runtime facility behind InstrumentationSource.
type Instrumentation interface {
	// LoadedClasses returns the internal names of every defined class.
	LoadedClasses() []string

	// ResourceFor opens the backing class file of a loaded class, or
	// returns an error when none is available.
	ResourceFor(name string) (io.ReadCloser, error)

	// AddTransformer registers t to be called whenever a class is defined
	// or retransformed. Calls may arrive on any goroutine.
	AddTransformer(t Transformer)

	// RemoveTransformer unregisters t.
	RemoveTransformer(t Transformer)

	// Retransform asks the runtime to retransform name in place, which
	// invokes registered transformers with its current bytes.
	Retransform(name string) error
}

// Transformer observes class definitions.
type Transformer interface {
	Transform(name string, classBytes []byte)
}

// InstrumentationSource caches the bytes of classes observed by a live
// runtime. Only observed classes can be served.
type InstrumentationSource struct {
	inst   Instrumentation
	hook   *captureHook
	logger utils.Logger

	mu      sync.RWMutex
	classes map[string][]byte

	closeOnce sync.Once
}

// captureHook is the registered transformer. It is a distinct pointer so
// that unregistering never matches another transformer.
type captureHook struct {
	src *InstrumentationSource
}

func (h *captureHook) Transform(name string, classBytes []byte) {
	h.src.store(name, classBytes)
}

// InstrumentationOption configures an InstrumentationSource.
type InstrumentationOption func(*InstrumentationSource)

// WithInstrumentationLogger sets the logger used for dropped classes.
func WithInstrumentationLogger(logger utils.Logger) InstrumentationOption {
	return func(s *InstrumentationSource) {
		s.logger = logger
	}
}

// NewInstrumentationSource registers a capture hook on inst and snapshots
// every loaded class. Classes are read from their backing resource when one
// exists, otherwise by retransforming them through the hook; classes that
// fail both are dropped.
func NewInstrumentationSource(inst Instrumentation, opts ...InstrumentationOption) *InstrumentationSource {
	s := &InstrumentationSource{
		inst:    inst,
		classes: make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = utils.OrNull(s.logger)
	s.hook = &captureHook{src: s}

	inst.AddTransformer(s.hook)
	s.snapshot()
	return s
}

func (s *InstrumentationSource) snapshot() {
	var pending []string
	for _, name := range s.inst.LoadedClasses() {
		if s.has(name) {
			continue
		}
		if data, err := s.readResource(name); err == nil {
			s.store(name, data)
			continue
		}
		pending = append(pending, name)
	}

	dropped := 0
	for _, name := range pending {
		if err := s.inst.Retransform(name); err != nil {
			s.logger.Debug("Retransform of %s failed: %v", name, err)
		}
		if !s.has(name) {
			dropped++
		}
	}
	if dropped > 0 {
		s.logger.Debug("Dropped %d classes with no recoverable bytes", dropped)
	}
}

func (s *InstrumentationSource) readResource(name string) ([]byte, error) {
	rc, err := s.inst.ResourceFor(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (s *InstrumentationSource) has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.classes[InternalName(name)]
	return ok
}

// store inserts a copy of data unless name is already cached.
func (s *InstrumentationSource) store(name string, data []byte) {
	if data == nil {
		return
	}
	key := InternalName(name)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classes[key]; ok {
		return
	}
	s.classes[key] = append([]byte(nil), data...)
}

// Get returns the observed bytes of name. The cache keeps serving after
// Close.
func (s *InstrumentationSource) Get(name string) ([]byte, error) {
	s.mu.RLock()
	data, ok := s.classes[InternalName(name)]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound(name, nil)
	}
	return data, nil
}

// Enumerate lists the classes observed so far.
func (s *InstrumentationSource) Enumerate() (map[string]Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Supplier, len(s.classes))
	for name, data := range s.classes {
		out[name] = func() ([]byte, error) { return data, nil }
	}
	return out, nil
}

// Len returns the number of observed classes.
func (s *InstrumentationSource) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.classes)
}

// Close unregisters the capture hook. Later calls are no-ops.
func (s *InstrumentationSource) Close() error {
	s.closeOnce.Do(func() {
		s.inst.RemoveTransformer(s.hook)
	})
	return nil
}
