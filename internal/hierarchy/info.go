package hierarchy

import (
	"sync"

	"github.com/classkit/internal/bytesource"
	"github.com/classkit/internal/classfile"
	apperrors "github.com/classkit/pkg/errors"
)

// ClassInfo is a resolved class. Its graph queries are computed on first
// use and frozen; failed queries are retried on the next call.
type ClassInfo struct {
	resolver *Resolver
	model    *classfile.ClassModel

	mu         sync.Mutex
	superSet   bool
	super      *ClassInfo
	ifacesSet  bool
	interfaces []*ClassInfo
	closures   [2][]*ClassInfo
	closureSet [2]bool
}

func newClassInfo(r *Resolver, model *classfile.ClassModel) *ClassInfo {
	return &ClassInfo{resolver: r, model: model}
}

// Name returns the internal class name.
func (c *ClassInfo) Name() string {
	return c.model.Name
}

// Model returns the decoded class.
func (c *ClassInfo) Model() *classfile.ClassModel {
	return c.model
}

// Fields returns the declared fields.
func (c *ClassInfo) Fields() []classfile.FieldModel {
	return c.model.Fields
}

// Methods returns the declared methods.
func (c *ClassInfo) Methods() []classfile.MethodModel {
	return c.model.Methods
}

// Super resolves the supertype, or returns nil for the root class.
func (c *ClassInfo) Super() (*ClassInfo, error) {
	c.mu.Lock()
	if c.superSet {
		defer c.mu.Unlock()
		return c.super, nil
	}
	c.mu.Unlock()

	var super *ClassInfo
	if c.model.HasSuper() {
		var err error
		if super, err = c.resolver.Resolve(c.model.SuperName); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.superSet {
		c.super, c.superSet = super, true
	}
	return c.super, nil
}

// Interfaces resolves the direct interfaces in declaration order.
func (c *ClassInfo) Interfaces() ([]*ClassInfo, error) {
	c.mu.Lock()
	if c.ifacesSet {
		defer c.mu.Unlock()
		return c.interfaces, nil
	}
	c.mu.Unlock()

	ifaces := make([]*ClassInfo, 0, len(c.model.Interfaces))
	for _, name := range c.model.Interfaces {
		info, err := c.resolver.Resolve(name)
		if err != nil {
			return nil, err
		}
		ifaces = append(ifaces, info)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ifacesSet {
		c.interfaces, c.ifacesSet = ifaces, true
	}
	return c.interfaces, nil
}

// Closure returns the class's hierarchy breadth first: each class is
// followed by its supertype and then its interfaces, each visited once by
// name. Cyclic hierarchies terminate. The result is shared and must not be
// modified.
func (c *ClassInfo) Closure(includeSelf bool) ([]*ClassInfo, error) {
	idx := 0
	if includeSelf {
		idx = 1
	}

	c.mu.Lock()
	if c.closureSet[idx] {
		defer c.mu.Unlock()
		return c.closures[idx], nil
	}
	c.mu.Unlock()

	all, _, err := c.walk(false)
	if err != nil {
		return nil, err
	}
	result := all
	if !includeSelf {
		result = all[1:]
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closureSet[idx] {
		c.closures[idx], c.closureSet[idx] = result, true
	}
	return c.closures[idx], nil
}

// walk performs the breadth-first traversal. With lenient set, supertypes
// and interfaces that cannot be found are collected instead of failing the
// walk.
func (c *ClassInfo) walk(lenient bool) ([]*ClassInfo, []string, error) {
	seen := make(map[string]bool)
	var order []*ClassInfo
	var missing []string

	queue := []*ClassInfo{c}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur.Name()] {
			continue
		}
		seen[cur.Name()] = true
		order = append(order, cur)

		next, miss, err := cur.edges(lenient)
		if err != nil {
			return nil, nil, err
		}
		queue = append(queue, next...)
		missing = append(missing, miss...)
	}
	return order, missing, nil
}

// edges returns the supertype followed by the interfaces.
func (c *ClassInfo) edges(lenient bool) ([]*ClassInfo, []string, error) {
	if !lenient {
		super, err := c.Super()
		if err != nil {
			return nil, nil, err
		}
		ifaces, err := c.Interfaces()
		if err != nil {
			return nil, nil, err
		}
		if super == nil {
			return ifaces, nil, nil
		}
		return append([]*ClassInfo{super}, ifaces...), nil, nil
	}

	names := c.model.Interfaces
	if c.model.HasSuper() {
		names = append([]string{c.model.SuperName}, names...)
	}
	var next []*ClassInfo
	var missing []string
	for _, name := range names {
		info, err := c.resolver.Resolve(name)
		switch {
		case err == nil:
			next = append(next, info)
		case apperrors.IsNotFound(err):
			missing = append(missing, name)
		default:
			return nil, nil, err
		}
	}
	return next, missing, nil
}

// IsAssignableTo reports whether name is the class itself or appears in its
// hierarchy.
func (c *ClassInfo) IsAssignableTo(name string) (bool, error) {
	closure, err := c.Closure(true)
	if err != nil {
		return false, err
	}
	name = bytesource.InternalName(name)
	for _, info := range closure {
		if info.Name() == name {
			return true, nil
		}
	}
	return false, nil
}

// Partial is a hierarchy walk that tolerated unresolvable classes.
type Partial struct {
	Classes []*ClassInfo
	Missing []string // names that no source could supply, deduplicated
}

// Complete reports whether every class in the hierarchy was resolved.
func (p *Partial) Complete() bool {
	return len(p.Missing) == 0
}

// PartialClosure walks the hierarchy like Closure but records classes that
// cannot be found instead of failing. Decoding errors still fail the walk.
func (r *Resolver) PartialClosure(info *ClassInfo, includeSelf bool) (*Partial, error) {
	all, missing, err := info.walk(true)
	if err != nil {
		return nil, err
	}
	if !includeSelf {
		all = all[1:]
	}

	seen := make(map[string]bool, len(missing))
	p := &Partial{Classes: all}
	for _, name := range missing {
		if !seen[name] {
			seen[name] = true
			p.Missing = append(p.Missing, name)
		}
	}
	return p, nil
}
