package bytesource

import (
	"context"
	"fmt"
	"sync"

	"github.com/classkit/internal/repository"
	"github.com/classkit/pkg/compression"
	apperrors "github.com/classkit/pkg/errors"
)

// DatabaseSource serves classes stored in a class blob repository. It keeps
// one decompressor per codec and must be closed to release them.
type DatabaseSource struct {
	repo repository.ClassBlobRepository

	mu     sync.Mutex
	codecs map[compression.Type]compression.Compressor
}

// NewDatabaseSource creates a DatabaseSource over repo.
func NewDatabaseSource(repo repository.ClassBlobRepository) *DatabaseSource {
	return &DatabaseSource{repo: repo, codecs: make(map[compression.Type]compression.Compressor)}
}

// Get loads and decompresses the blob of name.
func (d *DatabaseSource) Get(name string) ([]byte, error) {
	return d.GetContext(context.Background(), name)
}

// GetContext is Get bound to ctx.
func (d *DatabaseSource) GetContext(ctx context.Context, name string) ([]byte, error) {
	blob, err := d.repo.Get(ctx, InternalName(name))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, notFound(name, err)
		}
		return nil, err
	}
	return d.decodeBlob(blob)
}

// codec returns the shared compressor of t. Compressors are safe for
// concurrent use.
func (d *DatabaseSource) codec(t compression.Type) (compression.Compressor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if comp, ok := d.codecs[t]; ok {
		return comp, nil
	}
	comp, err := compression.New(t, compression.LevelDefault)
	if err != nil {
		return nil, err
	}
	d.codecs[t] = comp
	return comp, nil
}

func (d *DatabaseSource) decodeBlob(blob *repository.ClassBlob) ([]byte, error) {
	t, err := compression.ParseType(blob.Compression)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, fmt.Sprintf("class blob %s", blob.Name), err)
	}
	comp, err := d.codec(t)
	if err != nil {
		return nil, err
	}

	data, err := comp.Decompress(blob.Data)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDatabaseError, fmt.Sprintf("decompress class blob %s", blob.Name), err)
	}
	if blob.Checksum != "" && repository.Checksum(data) != blob.Checksum {
		return nil, apperrors.Newf(apperrors.CodeDatabaseError, "class blob %s: checksum mismatch", blob.Name)
	}
	return data, nil
}

// Close releases the cached decompressors. The source stays usable and
// creates them again on demand.
func (d *DatabaseSource) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for t, comp := range d.codecs {
		compression.Close(comp)
		delete(d.codecs, t)
	}
	return nil
}

// Enumerate lists every stored class.
func (d *DatabaseSource) Enumerate() (map[string]Supplier, error) {
	ctx := context.Background()
	names, err := d.repo.ListNames(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make(map[string]Supplier, len(names))
	for _, name := range names {
		out[name] = func() ([]byte, error) { return d.GetContext(ctx, name) }
	}
	return out, nil
}
