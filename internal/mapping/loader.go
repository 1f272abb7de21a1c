package mapping

import (
	"bytes"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/classkit/internal/bytesource"
	apperrors "github.com/classkit/pkg/errors"
	"github.com/classkit/pkg/utils"
)

// ErrLoad is returned by Mappings when the table could not be loaded.
var ErrLoad = apperrors.ErrLoadError

// Loader produces a rename table. Load parses at most once per loader;
// Mappings loads on first use and returns the cached table.
type Loader interface {
	Load() error
	Mappings() (*Table, error)
}

// Opener returns the text of a mapping file.
type Opener func() (io.ReadCloser, error)

// FromFile opens path on every call.
func FromFile(path string) Opener {
	return func() (io.ReadCloser, error) {
		return os.Open(path)
	}
}

// FromSource reads the entry name from src.
func FromSource(src bytesource.Source, name string) Opener {
	return func() (io.ReadCloser, error) {
		data, err := src.Get(name)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

// FromString serves fixed text.
func FromString(text string) Opener {
	return func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(text)), nil
	}
}

// Option configures a text loader.
type Option func(*textLoader)

// WithLogger sets the logger used to report load results.
func WithLogger(logger utils.Logger) Option {
	return func(l *textLoader) {
		l.logger = utils.OrNull(logger)
	}
}

// parseFunc turns the lines of a mapping file into a table. Lines are
// trimmed and never blank.
type parseFunc func(lines []line) (*Table, error)

type line struct {
	num  int
	text string
}

// textLoader drives one dialect parser over the text of an Opener.
type textLoader struct {
	dialect string
	open    Opener
	parse   parseFunc
	logger  utils.Logger

	once  sync.Once
	table *Table
	err   error
}

func newTextLoader(dialect string, open Opener, parse parseFunc, opts []Option) *textLoader {
	l := &textLoader{dialect: dialect, open: open, parse: parse, logger: &utils.NullLogger{}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load parses the mapping text. Only the first call parses; later calls
// return its result.
func (l *textLoader) Load() error {
	l.once.Do(func() {
		table, err := l.load()
		if err != nil {
			l.err = err
			l.logger.Warn("failed to load %s mappings: %v", l.dialect, err)
			return
		}
		l.table = table
		l.logger.Debug("loaded %d %s mappings", table.Len(), l.dialect)
	})
	return l.err
}

func (l *textLoader) load() (*Table, error) {
	rc, err := l.open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	lines, err := splitLines(data)
	if err != nil {
		return nil, err
	}
	return l.parse(lines)
}

// Mappings returns the loaded table, loading it first if needed.
func (l *textLoader) Mappings() (*Table, error) {
	if err := l.Load(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeLoadError, "failed to load "+l.dialect+" mappings", err)
	}
	return l.table, nil
}

// EmptyLoader yields an empty table.
type EmptyLoader struct {
	once  sync.Once
	table *Table
}

// NewEmptyLoader creates a new EmptyLoader.
func NewEmptyLoader() *EmptyLoader {
	return &EmptyLoader{}
}

// Load implements Loader.
func (l *EmptyLoader) Load() error {
	l.once.Do(func() { l.table = NewTable() })
	return nil
}

// Mappings implements Loader.
func (l *EmptyLoader) Mappings() (*Table, error) {
	l.Load()
	return l.table, nil
}

// DirectLoader serves a table supplied by the caller. The table is copied at
// construction.
type DirectLoader struct {
	table *Table
}

// NewDirectLoader creates a DirectLoader over a copy of table.
func NewDirectLoader(table *Table) *DirectLoader {
	if table == nil {
		return &DirectLoader{table: NewTable()}
	}
	return &DirectLoader{table: table.Copy()}
}

// Load implements Loader.
func (l *DirectLoader) Load() error { return nil }

// Mappings implements Loader.
func (l *DirectLoader) Mappings() (*Table, error) { return l.table, nil }

// Dialect names accepted by NewLoader.
const (
	DialectSRG       = "srg"
	DialectDirective = "directive"
	DialectNone      = "none"
)

// NewLoader returns the loader for dialect. The empty dialect means none.
func NewLoader(dialect string, open Opener, opts ...Option) (Loader, error) {
	switch strings.ToLower(dialect) {
	case DialectSRG:
		return NewSRGLoader(open, opts...), nil
	case DialectDirective:
		return NewDirectiveLoader(open, opts...), nil
	case DialectNone, "":
		return NewEmptyLoader(), nil
	default:
		return nil, apperrors.Newf(apperrors.CodeConfigError, "unknown mapping dialect: %s", dialect)
	}
}
