package service

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/classkit/internal/bytesource"
	"github.com/classkit/internal/classfile"
	"github.com/classkit/internal/repository"
	"github.com/classkit/internal/storage"
	"github.com/classkit/pkg/compression"
	"github.com/classkit/pkg/filter"
	"github.com/classkit/pkg/parallel"
	"github.com/classkit/pkg/telemetry"
)

// ExportOptions selects where enumerated classes are copied.
type ExportOptions struct {
	// Prefix is the storage key prefix; empty uses export.prefix.
	Prefix string
	// Compression is the codec name; empty uses export.compression.
	Compression string
	ToStorage   bool
	ToDatabase  bool
	Workers     int
	// Filter selects the exported classes; nil uses the service's filter.
	Filter *filter.ClassFilter
	// Progress is called periodically with the number of finished classes.
	Progress func(done, total int64)
}

// ExportReport summarizes an export.
type ExportReport struct {
	Exported    int               `json:"exported"`
	Skipped     int               `json:"skipped"`
	Failed      map[string]string `json:"failed,omitempty"`
	RawBytes    int64             `json:"raw_bytes"`
	StoredBytes int64             `json:"stored_bytes"`
	Elapsed     time.Duration     `json:"elapsed"`
}

// Export copies every enumerable class selected by the filter to storage,
// the database, or both. Each class is decoded first so only well-formed
// classes are copied. A class that fails is reported and does not stop the
// others.
func (s *Service) Export(ctx context.Context, opts ExportOptions) (report *ExportReport, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.Export")
	defer func() { telemetry.EndSpan(span, err) }()

	if !opts.ToStorage && !opts.ToDatabase {
		return nil, fmt.Errorf("export needs a storage or database target")
	}
	target, err := s.exportTarget(opts)
	if err != nil {
		return nil, err
	}
	defer compression.Close(target.comp)

	entries, err := bytesource.Enumerate(s.source)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate classes: %w", err)
	}
	names := make([]string, 0, len(entries))
	for n := range entries {
		names = append(names, n)
	}
	slices.Sort(names)
	selection := opts.Filter
	if selection == nil {
		selection = s.filter
	}
	selected := selection.Select(names)
	span.SetAttributes(telemetry.AttrCount.Int(len(selected)))
	s.logger.Info("Exporting %d of %d classes (%s)", len(selected), len(names), target.comp.Name())

	progress := parallel.NewProgress(int64(len(selected)), opts.Progress, 0)
	progress.Start(ctx)
	var raw, stored atomic.Int64

	results, stats := parallel.Map(ctx, selected, parallel.DefaultConfig().WithWorkers(opts.Workers), func(ctx context.Context, name string) (struct{}, error) {
		defer progress.Increment()
		data, err := entries[name]()
		if err != nil {
			return struct{}{}, err
		}
		model, err := classfile.Decode(data)
		if err != nil {
			return struct{}{}, err
		}
		n, err := target.write(ctx, model.Name, data)
		if err != nil {
			return struct{}{}, err
		}
		raw.Add(int64(len(data)))
		stored.Add(n)
		return struct{}{}, nil
	})
	progress.Stop()

	report = &ExportReport{
		Skipped:     len(names) - len(selected),
		RawBytes:    raw.Load(),
		StoredBytes: stored.Load(),
		Elapsed:     stats.Elapsed,
	}
	for _, r := range results {
		if r.Err != nil {
			if report.Failed == nil {
				report.Failed = make(map[string]string)
			}
			report.Failed[r.Input] = r.Err.Error()
			s.logger.Warn("Export of %s failed: %v", r.Input, r.Err)
			continue
		}
		report.Exported++
	}
	s.logger.Info("Exported %d classes in %v, %d failed", report.Exported, stats.Elapsed, stats.Failed)
	return report, ctx.Err()
}

type exportTarget struct {
	comp  compression.Compressor
	store storage.Storage
	keys  *bytesource.StorageSource
	blobs repository.ClassBlobRepository
}

func (s *Service) exportTarget(opts ExportOptions) (*exportTarget, error) {
	codec, err := compression.ParseType(cmp.Or(opts.Compression, s.config.Export.Compression))
	if err != nil {
		return nil, err
	}
	t := &exportTarget{}
	if opts.ToStorage {
		if t.store, err = s.Storage(); err != nil {
			return nil, err
		}
		t.keys = bytesource.NewStorageSource(t.store, cmp.Or(opts.Prefix, s.config.Export.Prefix))
	}
	if opts.ToDatabase {
		repos, err := s.Repositories()
		if err != nil {
			return nil, err
		}
		t.blobs = repos.Classes
	}
	if t.comp, err = compression.New(codec, compression.LevelDefault); err != nil {
		return nil, err
	}
	return t, nil
}

// write stores one class and returns the number of compressed bytes.
func (t *exportTarget) write(ctx context.Context, name string, data []byte) (int64, error) {
	packed, err := t.comp.Compress(data)
	if err != nil {
		return 0, fmt.Errorf("compress %s: %w", name, err)
	}
	if t.store != nil {
		if err := t.store.Put(ctx, t.keys.Key(name, t.comp.Type()), bytes.NewReader(packed)); err != nil {
			return 0, err
		}
	}
	if t.blobs != nil {
		blob := &repository.ClassBlob{
			Name:        name,
			Data:        packed,
			Compression: t.comp.Type().String(),
			Size:        int64(len(data)),
			Checksum:    repository.Checksum(data),
		}
		if err := t.blobs.Save(ctx, blob); err != nil {
			return 0, err
		}
	}
	return int64(len(packed)), nil
}
