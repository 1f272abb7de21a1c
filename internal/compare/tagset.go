// Package compare decides structural equality of decoded method bodies.
package compare

import (
	"fmt"
	"strings"

	"github.com/classkit/internal/classfile"
)

// TagSet is a set of instruction tags.
type TagSet uint32

// NewTagSet returns the set of tags.
func NewTagSet(tags ...classfile.Tag) TagSet {
	var s TagSet
	for _, t := range tags {
		s |= 1 << t
	}
	return s
}

// DefaultIgnore skips stack map frames and line numbers, which differ
// between otherwise identical compilations.
var DefaultIgnore = NewTagSet(classfile.TagFrame, classfile.TagLine)

// Has reports whether t is in the set.
func (s TagSet) Has(t classfile.Tag) bool {
	return t < 32 && s&(1<<t) != 0
}

// With returns the set extended by tags.
func (s TagSet) With(tags ...classfile.Tag) TagSet {
	return s | NewTagSet(tags...)
}

// ParseTagSet builds a set from tag names such as "frame" and "line".
func ParseTagSet(names []string) (TagSet, error) {
	var s TagSet
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		t, ok := classfile.ParseTag(name)
		if !ok {
			return 0, fmt.Errorf("unknown instruction tag: %q", name)
		}
		s |= NewTagSet(t)
	}
	return s, nil
}

func (s TagSet) String() string {
	var names []string
	for t := classfile.TagInsn; t <= classfile.TagLine; t++ {
		if s.Has(t) {
			names = append(names, t.String())
		}
	}
	return "{" + strings.Join(names, ",") + "}"
}
