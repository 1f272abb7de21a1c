// Package hierarchy resolves classes by name and walks their supertype and
// interface graph. Every resolved class is cached once per resolver.
package hierarchy

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/classkit/internal/bytesource"
	"github.com/classkit/internal/classfile"
	apperrors "github.com/classkit/pkg/errors"
	"github.com/classkit/pkg/utils"
)

// Resolver decodes classes on demand and caches one ClassInfo per name.
// It is safe for concurrent use.
type Resolver struct {
	src     bytesource.Source
	decode  func([]byte) (*classfile.ClassModel, error)
	logger  utils.Logger
	workers int

	mu    sync.Mutex
	slots map[string]*slot
}

// slot is a cache entry. done is closed once info or err is set; a failed
// slot is removed from the cache before done is closed.
type slot struct {
	done chan struct{}
	info *ClassInfo
	err  error
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(logger utils.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithPreloadWorkers bounds the concurrency of Preload.
func WithPreloadWorkers(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithDecoder replaces classfile.Decode.
func WithDecoder(decode func([]byte) (*classfile.ClassModel, error)) Option {
	return func(r *Resolver) {
		r.decode = decode
	}
}

// NewResolver creates a resolver reading classes from src.
func NewResolver(src bytesource.Source, opts ...Option) *Resolver {
	r := &Resolver{
		src:     src,
		decode:  classfile.Decode,
		workers: 4,
		slots:   make(map[string]*slot),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = utils.OrNull(r.logger)
	return r
}

// Resolve returns the cached ClassInfo of name, reading and decoding it on
// first request. Concurrent first requests for one name share a single
// read. Failures are returned to every waiting caller and are not cached.
func (r *Resolver) Resolve(name string) (*ClassInfo, error) {
	name = bytesource.InternalName(name)

	r.mu.Lock()
	if s, ok := r.slots[name]; ok {
		r.mu.Unlock()
		<-s.done
		return s.info, s.err
	}
	s := &slot{done: make(chan struct{})}
	r.slots[name] = s
	r.mu.Unlock()

	s.info, s.err = r.load(name)
	if s.err != nil {
		r.mu.Lock()
		delete(r.slots, name)
		r.mu.Unlock()
	}
	close(s.done)
	return s.info, s.err
}

func (r *Resolver) load(name string) (*ClassInfo, error) {
	data, err := r.src.Get(name)
	if err != nil {
		return nil, err
	}
	model, err := r.decode(data)
	if err != nil {
		return nil, err
	}
	if model.Name != name {
		return nil, apperrors.Newf(apperrors.CodeMalformedClass, "bytes for %s declare class %s", name, model.Name)
	}
	r.logger.Debug("Resolved class %s (%d bytes)", name, len(data))
	return newClassInfo(r, model), nil
}

// ResolveModel caches an already decoded class under its name and returns
// its ClassInfo. If the name is already cached, the cached entry wins.
func (r *Resolver) ResolveModel(model *classfile.ClassModel) *ClassInfo {
	for {
		r.mu.Lock()
		s, ok := r.slots[model.Name]
		if !ok {
			s = &slot{done: make(chan struct{}), info: newClassInfo(r, model)}
			close(s.done)
			r.slots[model.Name] = s
			r.mu.Unlock()
			return s.info
		}
		r.mu.Unlock()

		<-s.done
		if s.err == nil {
			return s.info
		}
	}
}

// Cached reports whether name has a resolved entry.
func (r *Resolver) Cached(name string) bool {
	r.mu.Lock()
	s, ok := r.slots[bytesource.InternalName(name)]
	r.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case <-s.done:
		return s.err == nil
	default:
		return false
	}
}

// Len returns the number of cached entries, including in-flight ones.
func (r *Resolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

// Super resolves the supertype of info, or returns nil for the root class.
func (r *Resolver) Super(info *ClassInfo) (*ClassInfo, error) {
	return info.Super()
}

// Interfaces resolves the direct interfaces of info in declaration order.
func (r *Resolver) Interfaces(info *ClassInfo) ([]*ClassInfo, error) {
	return info.Interfaces()
}

// Closure returns every class reachable from info through supertypes and
// interfaces, breadth first.
func (r *Resolver) Closure(info *ClassInfo, includeSelf bool) ([]*ClassInfo, error) {
	return info.Closure(includeSelf)
}

// Preload resolves names concurrently and returns the first failure.
func (r *Resolver) Preload(ctx context.Context, names []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := r.Resolve(name)
			return err
		})
	}
	return g.Wait()
}
