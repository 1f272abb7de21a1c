package bytesource

import (
	"fmt"
	"io"
	"io/fs"
)

// ResourceLoader opens a class-path resource by slash-delimited path.
type ResourceLoader interface {
	Open(path string) (io.ReadCloser, error)
}

// ResourceLoaderFunc adapts a function to ResourceLoader.
type ResourceLoaderFunc func(path string) (io.ReadCloser, error)

// Open calls f(path).
func (f ResourceLoaderFunc) Open(path string) (io.ReadCloser, error) {
	return f(path)
}

// FSLoader serves resources from a file system such as an embed.FS.
func FSLoader(fsys fs.FS) ResourceLoader {
	return ResourceLoaderFunc(func(path string) (io.ReadCloser, error) {
		return fsys.Open(path)
	})
}

// LoaderSource asks a runtime class loader for a/b/C.class and buffers the
// stream. Any I/O failure is reported as not found.
type LoaderSource struct {
	loader ResourceLoader
}

// NewLoaderSource creates a LoaderSource over loader.
func NewLoaderSource(loader ResourceLoader) *LoaderSource {
	return &LoaderSource{loader: loader}
}

// Get reads the resource of name fully.
func (l *LoaderSource) Get(name string) ([]byte, error) {
	path := ResourcePath(name)
	rc, err := l.loader.Open(path)
	if err != nil {
		return nil, notFound(name, err)
	}
	if rc == nil {
		return nil, notFound(name, fmt.Errorf("no resource %s", path))
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, notFound(name, err)
	}
	return data, nil
}
