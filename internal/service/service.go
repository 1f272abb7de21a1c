// Package service wires configured class sources, the hierarchy resolver,
// the rename table and the export targets into the operations the CLI runs.
package service

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/classkit/internal/annotation"
	"github.com/classkit/internal/bytesource"
	"github.com/classkit/internal/hierarchy"
	"github.com/classkit/internal/mapping"
	"github.com/classkit/internal/repository"
	"github.com/classkit/internal/storage"
	"github.com/classkit/pkg/config"
	"github.com/classkit/pkg/filter"
	"github.com/classkit/pkg/utils"
)

// Service is the main application service.
type Service struct {
	config *config.Config
	logger utils.Logger

	storage storage.Storage
	repos   *repository.Repositories

	// source is overridden by WithSource; otherwise built from config.Sources.
	source   bytesource.Source
	owned    []bytesource.Source
	resolver *hierarchy.Resolver
	loader   mapping.Loader
	views    *annotation.Factory
	filter   *filter.ClassFilter
}

// Option customizes a Service before Initialize.
type Option func(*Service)

// WithSource replaces the configured sources.
func WithSource(src bytesource.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithStorage replaces the configured object storage.
func WithStorage(store storage.Storage) Option {
	return func(s *Service) {
		s.storage = store
	}
}

// WithRepositories replaces the configured database.
func WithRepositories(repos *repository.Repositories) Option {
	return func(s *Service) {
		s.repos = repos
	}
}

// WithMappingLoader replaces the configured rename table.
func WithMappingLoader(loader mapping.Loader) Option {
	return func(s *Service) {
		s.loader = loader
	}
}

// WithFilter sets the class selection used by Export.
func WithFilter(f *filter.ClassFilter) Option {
	return func(s *Service) {
		s.filter = f
	}
}

// New creates a new Service instance.
func New(cfg *config.Config, logger utils.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	s := &Service{config: cfg, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	if s.filter == nil {
		s.filter = filter.NewClassFilter()
	}
	return s, nil
}

// Initialize builds the source chain, the resolver and the mapping loader.
// Storage and database connections are opened only when a source needs them.
func (s *Service) Initialize(ctx context.Context) error {
	if s.source == nil {
		src, err := s.buildSources()
		if err != nil {
			return fmt.Errorf("failed to initialize sources: %w", err)
		}
		s.source = src
	}

	s.resolver = hierarchy.NewResolver(s.source,
		hierarchy.WithLogger(s.logger),
		hierarchy.WithPreloadWorkers(s.config.Resolver.PreloadWorkers),
	)
	s.views = annotation.NewFactory(s.resolver, annotation.WithLogger(s.logger))

	if s.loader == nil {
		loader, err := mapping.NewLoader(s.config.Mapping.Dialect, mapping.FromFile(s.config.Mapping.File), mapping.WithLogger(s.logger))
		if err != nil {
			return fmt.Errorf("failed to initialize mappings: %w", err)
		}
		s.loader = loader
	}

	s.logger.Info("Service initialized with %d configured sources", len(s.config.Sources))
	return nil
}

// buildSources turns the ordered source list into a chain. Archives are
// opened on first use.
func (s *Service) buildSources() (bytesource.Source, error) {
	chain := bytesource.NewChainSource()
	for i, sc := range s.config.Sources {
		var src bytesource.Source
		switch sc.Type {
		case config.SourceDir:
			src = bytesource.NewDirSource(sc.Path)
		case config.SourceArchive:
			path := sc.Path
			lazy := bytesource.NewLazySource(func() (bytesource.Source, error) {
				s.logger.Debug("Opening archive %s", path)
				return bytesource.OpenArchive(path)
			})
			s.owned = append(s.owned, lazy)
			src = lazy
		case config.SourceStorage:
			store, err := s.Storage()
			if err != nil {
				return nil, err
			}
			src = bytesource.NewStorageSource(store, sc.Prefix)
		case config.SourceDatabase:
			repos, err := s.Repositories()
			if err != nil {
				return nil, err
			}
			db := bytesource.NewDatabaseSource(repos.Classes)
			s.owned = append(s.owned, db)
			src = db
		default:
			return nil, fmt.Errorf("sources[%d]: unsupported source type %q", i, sc.Type)
		}
		s.logger.Debug("Source %d: %s %s%s", i, sc.Type, sc.Path, sc.Prefix)
		chain = chain.Then(src)
	}
	return chain, nil
}

// Storage returns the object storage, connecting on first use.
func (s *Service) Storage() (storage.Storage, error) {
	if s.storage != nil {
		return s.storage, nil
	}
	s.logger.Info("Initializing storage (%s)...", s.config.Storage.Type)
	store, err := storage.NewStorage(&s.config.Storage)
	if err != nil {
		return nil, err
	}
	s.storage = store
	return store, nil
}

// Repositories returns the database repositories, connecting on first use.
func (s *Service) Repositories() (*repository.Repositories, error) {
	if s.repos != nil {
		return s.repos, nil
	}
	s.logger.Info("Connecting to database (%s)...", s.config.Database.Type)
	repos, err := repository.Open(&s.config.Database)
	if err != nil {
		return nil, err
	}
	s.repos = repos
	return repos, nil
}

// Source returns the class source.
func (s *Service) Source() bytesource.Source {
	return s.source
}

// Resolver returns the hierarchy resolver.
func (s *Service) Resolver() *hierarchy.Resolver {
	return s.resolver
}

// HealthCheck verifies the database connection when one is open.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.repos != nil {
		if err := s.repos.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
	}
	return nil
}

// Close releases opened archives and the database connection.
func (s *Service) Close() error {
	var merr *multierror.Error
	for _, src := range s.owned {
		if err := bytesource.Close(src); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	s.owned = nil
	if s.repos != nil {
		if err := s.repos.Close(); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("close database: %w", err))
		}
		s.repos = nil
	}
	return merr.ErrorOrNil()
}
