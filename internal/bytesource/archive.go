package bytesource

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	apperrors "github.com/classkit/pkg/errors"
)

// jmodMagic prefixes the zip payload of a JDK jmod file.
var jmodMagic = []byte{'J', 'M', 0x01, 0x00}

// jmodClassDir holds the class files inside a jmod.
const jmodClassDir = "classes/"

// ArchiveSource serves classes from a zip, jar or jmod archive.
type ArchiveSource struct {
	closer io.Closer // nil when the handle is not owned
	index  map[string]*zip.File

	closed    atomic.Bool
	closeOnce sync.Once
}

// OpenArchive opens the archive at path. The returned source owns the file
// handle and releases it on Close.
func OpenArchive(path string) (*ArchiveSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageError, fmt.Sprintf("open archive %s", path), err)
	}

	s, err := newArchive(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.closer = f
	return s, nil
}

func newArchive(f *os.File, path string) (*ArchiveSource, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageError, fmt.Sprintf("stat archive %s", path), err)
	}

	var ra io.ReaderAt = f
	size := info.Size()
	root := ""

	header := make([]byte, len(jmodMagic))
	if n, _ := f.ReadAt(header, 0); n == len(header) && bytes.Equal(header, jmodMagic) {
		ra = io.NewSectionReader(f, int64(len(jmodMagic)), size-int64(len(jmodMagic)))
		size -= int64(len(jmodMagic))
		root = jmodClassDir
	}

	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageError, fmt.Sprintf("read archive %s", path), err)
	}
	return newArchiveSource(zr, root), nil
}

// NewArchiveSource wraps an archive opened by the caller. When
// closeUnderlying is set, Close also closes rc.
func NewArchiveSource(rc *zip.ReadCloser, closeUnderlying bool) *ArchiveSource {
	s := newArchiveSource(&rc.Reader, "")
	if closeUnderlying {
		s.closer = rc
	}
	return s
}

func newArchiveSource(zr *zip.Reader, root string) *ArchiveSource {
	s := &ArchiveSource{index: make(map[string]*zip.File)}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasPrefix(f.Name, root) || !strings.HasSuffix(f.Name, ".class") {
			continue
		}
		s.index[InternalName(strings.TrimPrefix(f.Name, root))] = f
	}
	return s
}

// Get reads the class entry for name.
func (s *ArchiveSource) Get(name string) ([]byte, error) {
	if s.closed.Load() {
		return nil, closed(name)
	}
	f, ok := s.index[InternalName(name)]
	if !ok {
		return nil, notFound(name, nil)
	}
	return s.read(f)
}

func (s *ArchiveSource) read(f *zip.File) ([]byte, error) {
	if s.closed.Load() {
		return nil, closed(f.Name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageError, fmt.Sprintf("open entry %s", f.Name), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageError, fmt.Sprintf("read entry %s", f.Name), err)
	}
	return data, nil
}

// Enumerate lists every class entry.
func (s *ArchiveSource) Enumerate() (map[string]Supplier, error) {
	if s.closed.Load() {
		return nil, apperrors.New(apperrors.CodeClosed, "enumerate: source closed")
	}
	out := make(map[string]Supplier, len(s.index))
	for name, f := range s.index {
		out[name] = func() ([]byte, error) { return s.read(f) }
	}
	return out, nil
}

// Len returns the number of class entries.
func (s *ArchiveSource) Len() int {
	return len(s.index)
}

// Close releases the archive handle if it is owned. Later calls are no-ops.
func (s *ArchiveSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		if s.closer != nil {
			err = s.closer.Close()
		}
	})
	return err
}
