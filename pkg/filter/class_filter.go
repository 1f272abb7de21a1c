// Package filter classifies classes by internal name and selects which
// classes an export or listing covers.
package filter

import (
	"slices"
	"strings"
	"sync"
)

// ClassCategory represents the category of a class.
type ClassCategory int

const (
	// CategoryUnknown indicates the class category is unknown.
	CategoryUnknown ClassCategory = iota
	// CategoryJDK indicates platform classes shipped with the runtime.
	CategoryJDK
	// CategoryFramework indicates third-party library and framework classes.
	CategoryFramework
	// CategoryGenerated indicates lambdas, proxies and other generated classes.
	CategoryGenerated
	// CategoryApplication indicates everything else.
	CategoryApplication
)

// String returns the string representation of the category.
func (c ClassCategory) String() string {
	switch c {
	case CategoryJDK:
		return "jdk"
	case CategoryFramework:
		return "framework"
	case CategoryGenerated:
		return "generated"
	case CategoryApplication:
		return "application"
	default:
		return "unknown"
	}
}

var defaultJDKPrefixes = []string{
	"java/",
	"javax/",
	"jdk/",
	"sun/",
	"com/sun/",
}

var defaultFrameworkPrefixes = []string{
	"org/springframework/",
	"io/netty/",
	"com/google/common/",
	"org/slf4j/",
	"ch/qos/logback/",
	"org/apache/",
	"com/fasterxml/jackson/",
	"net/bytebuddy/",
	"org/objectweb/asm/",
	"kotlin/",
	"scala/",
}

var generatedMarkers = []string{
	"$$Lambda",
	"$$EnhancerBy",
	"$$FastClassBy",
	"$Proxy",
}

// ClassFilter classifies internal class names such as "java/lang/String".
// Dotted names are accepted and normalized. It is safe for concurrent use.
type ClassFilter struct {
	mu sync.RWMutex

	jdkPrefixes       []string
	frameworkPrefixes []string

	include []string
	exclude []string

	categoryCache     map[string]ClassCategory
	categoryCacheSize int
}

// NewClassFilter creates a new ClassFilter with default rules.
func NewClassFilter() *ClassFilter {
	return &ClassFilter{
		jdkPrefixes:       slices.Clone(defaultJDKPrefixes),
		frameworkPrefixes: slices.Clone(defaultFrameworkPrefixes),
		categoryCache:     make(map[string]ClassCategory),
		categoryCacheSize: 10000,
	}
}

// Classify returns the category of a class.
func (f *ClassFilter) Classify(className string) ClassCategory {
	name := normalize(className)
	if name == "" {
		return CategoryUnknown
	}

	f.mu.RLock()
	if cat, ok := f.categoryCache[name]; ok {
		f.mu.RUnlock()
		return cat
	}
	cat := f.classifyLocked(name)
	f.mu.RUnlock()

	f.mu.Lock()
	if len(f.categoryCache) < f.categoryCacheSize {
		f.categoryCache[name] = cat
	}
	f.mu.Unlock()
	return cat
}

func (f *ClassFilter) classifyLocked(name string) ClassCategory {
	for _, marker := range generatedMarkers {
		if strings.Contains(name, marker) {
			return CategoryGenerated
		}
	}
	if strings.HasPrefix(name, "jdk/proxy") || strings.HasPrefix(name, "com/sun/proxy/") {
		return CategoryGenerated
	}
	if hasAnyPrefix(name, f.jdkPrefixes) {
		return CategoryJDK
	}
	if hasAnyPrefix(name, f.frameworkPrefixes) {
		return CategoryFramework
	}
	return CategoryApplication
}

// IsJDK reports whether the class ships with the runtime.
func (f *ClassFilter) IsJDK(className string) bool {
	return f.Classify(className) == CategoryJDK
}

// IsApplication reports whether the class is neither platform, library nor
// generated code.
func (f *ClassFilter) IsApplication(className string) bool {
	return f.Classify(className) == CategoryApplication
}

// Include restricts Selected to classes under the given package prefixes.
func (f *ClassFilter) Include(prefixes ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.include = appendPrefixes(f.include, prefixes)
}

// Exclude removes classes under the given package prefixes from Selected.
func (f *ClassFilter) Exclude(prefixes ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exclude = appendPrefixes(f.exclude, prefixes)
}

// Selected reports whether className passes the include and exclude rules.
// With no include rule every class is included. Exclusion wins.
func (f *ClassFilter) Selected(className string) bool {
	name := normalize(className)
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.include) > 0 && !hasAnyPrefix(name, f.include) {
		return false
	}
	return !hasAnyPrefix(name, f.exclude)
}

// Select returns the selected names in their original order.
func (f *ClassFilter) Select(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if f.Selected(n) {
			out = append(out, n)
		}
	}
	return out
}

// AddJDKPrefix adds a custom platform prefix.
func (f *ClassFilter) AddJDKPrefix(prefix string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jdkPrefixes = appendPrefixes(f.jdkPrefixes, []string{prefix})
	clear(f.categoryCache)
}

// AddFrameworkPrefix adds a custom library prefix.
func (f *ClassFilter) AddFrameworkPrefix(prefix string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frameworkPrefixes = appendPrefixes(f.frameworkPrefixes, []string{prefix})
	clear(f.categoryCache)
}

// CacheStats returns cache statistics.
func (f *ClassFilter) CacheStats() (size int, maxSize int) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.categoryCache), f.categoryCacheSize
}

// SetCacheSize sets the maximum cache size.
func (f *ClassFilter) SetCacheSize(size int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categoryCacheSize = size
	if len(f.categoryCache) > size {
		clear(f.categoryCache)
	}
}

// CountByCategory tallies names per category.
func (f *ClassFilter) CountByCategory(names []string) map[ClassCategory]int {
	counts := make(map[ClassCategory]int)
	for _, n := range names {
		counts[f.Classify(n)]++
	}
	return counts
}

func normalize(name string) string {
	name = strings.TrimSuffix(name, ".class")
	return strings.ReplaceAll(name, ".", "/")
}

func hasAnyPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// appendPrefixes normalizes prefixes and skips duplicates.
func appendPrefixes(dst, prefixes []string) []string {
	for _, p := range prefixes {
		p = normalize(strings.TrimSpace(p))
		if p == "" || slices.Contains(dst, p) {
			continue
		}
		dst = append(dst, p)
	}
	return dst
}

// DefaultFilter is the default global filter instance.
var DefaultFilter = NewClassFilter()

// Classify classifies a class using the default filter.
func Classify(className string) ClassCategory {
	return DefaultFilter.Classify(className)
}

// IsJDK checks if a class ships with the runtime using the default filter.
func IsJDK(className string) bool {
	return DefaultFilter.IsJDK(className)
}
