package hierarchy

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classkit/internal/bytesource"
	"github.com/classkit/internal/classfile"
	"github.com/classkit/internal/testutil"
	apperrors "github.com/classkit/pkg/errors"
)

// countingSource records how often each name is requested.
type countingSource struct {
	src   bytesource.Source
	delay time.Duration

	mu    sync.Mutex
	calls map[string]int
}

func newCountingSource(classes map[string][]byte) *countingSource {
	return &countingSource{
		src:   bytesource.NewMapSource(classes, bytesource.SlashName),
		calls: make(map[string]int),
	}
}

func (c *countingSource) Get(name string) ([]byte, error) {
	c.mu.Lock()
	c.calls[name]++
	c.mu.Unlock()
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return c.src.Get(name)
}

func (c *countingSource) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[name]
}

// hierarchyFixture: C extends B implements I, J; B extends A implements J;
// A extends java/lang/Object; I extends K.
func hierarchyFixture() map[string][]byte {
	iface := func(name string, supers ...string) []byte {
		return testutil.NewClassBuilder(name, "java/lang/Object", supers...).SetAccess(0x0601).Bytes()
	}
	return map[string][]byte{
		"java/lang/Object": testutil.NewClassBuilder("java/lang/Object", "").Bytes(),
		"p/A":              testutil.SimpleClass("p/A", "java/lang/Object"),
		"p/B":              testutil.SimpleClass("p/B", "p/A", "p/J"),
		"p/C":              testutil.SimpleClass("p/C", "p/B", "p/I", "p/J"),
		"p/I":              iface("p/I", "p/K"),
		"p/J":              iface("p/J"),
		"p/K":              iface("p/K"),
	}
}

func names(infos []*ClassInfo) []string {
	out := make([]string, len(infos))
	for i, info := range infos {
		out[i] = info.Name()
	}
	return out
}

func TestResolver_Resolve(t *testing.T) {
	src := newCountingSource(hierarchyFixture())
	r := NewResolver(src)

	first, err := r.Resolve("p/C")
	require.NoError(t, err)
	second, err := r.Resolve("p.C")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, src.count("p/C"))
	assert.Equal(t, "p/B", first.Model().SuperName)
	assert.Len(t, first.Fields(), 1)
	assert.Len(t, first.Methods(), 1)
	assert.True(t, r.Cached("p/C"))
	assert.False(t, r.Cached("p/B"))
}

func TestResolver_Errors(t *testing.T) {
	classes := hierarchyFixture()
	classes["p/Bad"] = []byte{0xCA, 0xFE}
	src := newCountingSource(classes)
	r := NewResolver(src)

	t.Run("NotFound", func(t *testing.T) {
		_, err := r.Resolve("p/Missing")
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := r.Resolve("p/Bad")
		require.Error(t, err)
		assert.True(t, apperrors.IsMalformedClass(err))
	})

	t.Run("FailuresAreNotCached", func(t *testing.T) {
		_, _ = r.Resolve("p/Missing")
		assert.Equal(t, 2, src.count("p/Missing"))
		assert.False(t, r.Cached("p/Missing"))
	})
}

func TestResolver_NameMismatch(t *testing.T) {
	classes := hierarchyFixture()
	classes["p/X"] = classes["p/A"]
	src := newCountingSource(classes)
	r := NewResolver(src)

	_, err := r.Resolve("p/X")
	require.Error(t, err)
	assert.True(t, apperrors.IsMalformedClass(err))
	assert.Contains(t, err.Error(), "declare class p/A")
	assert.False(t, r.Cached("p/X"))

	a, err := r.Resolve("p/A")
	require.NoError(t, err)
	assert.Equal(t, "p/A", a.Name())
	assert.Equal(t, 1, r.Len())
}

func TestResolver_ConcurrentFirstAccess(t *testing.T) {
	src := newCountingSource(hierarchyFixture())
	src.delay = 20 * time.Millisecond
	r := NewResolver(src)

	const callers = 32
	results := make([]*ClassInfo, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			info, err := r.Resolve("p/A")
			assert.NoError(t, err)
			results[i] = info
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, src.count("p/A"))
	for _, info := range results {
		assert.Same(t, results[0], info)
	}
}

func TestResolver_ResolveModel(t *testing.T) {
	src := newCountingSource(hierarchyFixture())
	r := NewResolver(src)

	model, err := classfile.Decode(testutil.SimpleClass("p/Local", "p/A"))
	require.NoError(t, err)

	info := r.ResolveModel(model)
	again, err := r.Resolve("p/Local")
	require.NoError(t, err)
	assert.Same(t, info, again)
	assert.Equal(t, 0, src.count("p/Local"), "models bypass the source")

	t.Run("CachedEntryWins", func(t *testing.T) {
		resolved, err := r.Resolve("p/A")
		require.NoError(t, err)
		other, err := classfile.Decode(testutil.SimpleClass("p/A", "java/lang/Object"))
		require.NoError(t, err)
		assert.Same(t, resolved, r.ResolveModel(other))
	})

	super, err := info.Super()
	require.NoError(t, err)
	assert.Equal(t, "p/A", super.Name())
}

func TestResolver_SuperAndInterfaces(t *testing.T) {
	r := NewResolver(newCountingSource(hierarchyFixture()))
	c, err := r.Resolve("p/C")
	require.NoError(t, err)

	super, err := r.Super(c)
	require.NoError(t, err)
	assert.Equal(t, "p/B", super.Name())

	ifaces, err := r.Interfaces(c)
	require.NoError(t, err)
	assert.Equal(t, []string{"p/I", "p/J"}, names(ifaces))

	again, err := r.Interfaces(c)
	require.NoError(t, err)
	assert.Same(t, ifaces[0], again[0])

	root, err := r.Resolve("java/lang/Object")
	require.NoError(t, err)
	none, err := r.Super(root)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestResolver_Closure(t *testing.T) {
	r := NewResolver(newCountingSource(hierarchyFixture()))
	c, err := r.Resolve("p/C")
	require.NoError(t, err)

	tests := []struct {
		name        string
		includeSelf bool
		want        []string
	}{
		{
			name:        "IncludeSelf",
			includeSelf: true,
			want:        []string{"p/C", "p/B", "p/I", "p/J", "p/A", "java/lang/Object", "p/K"},
		},
		{
			name:        "ExcludeSelf",
			includeSelf: false,
			want:        []string{"p/B", "p/I", "p/J", "p/A", "java/lang/Object", "p/K"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			closure, err := r.Closure(c, tt.includeSelf)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(closure))

			again, err := c.Closure(tt.includeSelf)
			require.NoError(t, err)
			assert.Same(t, &closure[0], &again[0], "closures are memoized")
		})
	}

	t.Run("IsAssignableTo", func(t *testing.T) {
		for _, name := range []string{"p/C", "p/K", "java.lang.Object"} {
			ok, err := c.IsAssignableTo(name)
			require.NoError(t, err)
			assert.True(t, ok, name)
		}
		ok, err := c.IsAssignableTo("p/Unrelated")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestResolver_CyclicHierarchy(t *testing.T) {
	classes := map[string][]byte{
		"p/A": testutil.SimpleClass("p/A", "p/B"),
		"p/B": testutil.SimpleClass("p/B", "p/A"),
	}
	r := NewResolver(newCountingSource(classes))

	a, err := r.Resolve("p/A")
	require.NoError(t, err)

	closure, err := r.Closure(a, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"p/A", "p/B"}, names(closure))

	closure, err = r.Closure(a, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"p/B"}, names(closure))
}

func TestResolver_MissingSupertype(t *testing.T) {
	classes := hierarchyFixture()
	delete(classes, "java/lang/Object")
	delete(classes, "p/K")
	r := NewResolver(newCountingSource(classes))

	c, err := r.Resolve("p/C")
	require.NoError(t, err)

	_, err = r.Closure(c, true)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err), "resolution errors are not swallowed")

	partial, err := r.PartialClosure(c, true)
	require.NoError(t, err)
	assert.False(t, partial.Complete())
	assert.Equal(t, []string{"p/C", "p/B", "p/I", "p/J", "p/A"}, names(partial.Classes))
	assert.ElementsMatch(t, []string{"java/lang/Object", "p/K"}, partial.Missing)
}

func TestResolver_Preload(t *testing.T) {
	src := newCountingSource(hierarchyFixture())
	r := NewResolver(src, WithPreloadWorkers(2))

	err := r.Preload(context.Background(), []string{"p/A", "p/B", "p/C", "p/A"})
	require.NoError(t, err)
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 1, src.count("p/A"))

	t.Run("Failure", func(t *testing.T) {
		err := r.Preload(context.Background(), []string{"p/I", "p/Nope"})
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := r.Preload(ctx, []string{"p/K"})
		assert.True(t, errors.Is(err, context.Canceled))
		assert.False(t, r.Cached("p/K"))
	})
}

func TestResolver_CustomDecoder(t *testing.T) {
	decodeErr := errors.New("decoder disabled")
	r := NewResolver(newCountingSource(hierarchyFixture()), WithDecoder(func([]byte) (*classfile.ClassModel, error) {
		return nil, decodeErr
	}))

	_, err := r.Resolve("p/A")
	assert.ErrorIs(t, err, decodeErr)
}
