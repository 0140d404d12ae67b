package datasets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	apperrors "energypolicy/internal/errors"
)

// ErrDatasetNotFound is returned for ids outside the catalogue or files
// missing from the data directory
var ErrDatasetNotFound = errors.New("dataset not found")

// DefaultLoadConcurrency bounds parallel file reads in LoadAll
const DefaultLoadConcurrency = 4

// Store reads envelopes from a data directory and caches them; processed
// files do not change while the process runs.
type Store struct {
	fsys   fs.FS
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]*Envelope
}

// NewStore creates a store over fsys, which is rooted at the data directory
func NewStore(fsys fs.FS, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		fsys:   fsys,
		logger: logger.With(slog.String("component", "dataset_store")),
		cache:  make(map[string]*Envelope),
	}
}

// Load returns the envelope for id
func (s *Store) Load(ctx context.Context, id string) (*Envelope, error) {
	ds, ok := Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}

	s.mu.RLock()
	env, cached := s.cache[id]
	s.mu.RUnlock()
	if cached {
		return env, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	env, err := s.read(ds)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[id] = env
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "dataset loaded",
		slog.String("dataset", id),
		slog.Int("records", env.Records()))
	return env, nil
}

func (s *Store) read(ds Dataset) (*Envelope, error) {
	f, err := s.fsys.Open(ds.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, ds.ID)
		}
		return nil, apperrors.NewStorageError("open "+ds.Path(), err).WithContext("dataset", ds.ID)
	}
	defer f.Close()

	env, err := DecodeEnvelope(f)
	if err != nil {
		return nil, apperrors.NewParsingError("decode "+ds.Path(), err).WithContext("dataset", ds.ID)
	}
	if env.ID == "" {
		env.ID = ds.ID
	} else if env.ID != ds.ID {
		s.logger.Warn("envelope id differs from file name",
			slog.String("dataset", ds.ID),
			slog.String("envelope_id", env.ID))
	}
	return env, nil
}

// LoadAll loads the whole catalogue concurrently. The result follows catalogue
// order. Datasets missing from disk are skipped; any other failure aborts.
func (s *Store) LoadAll(ctx context.Context) ([]*Envelope, error) {
	list := Catalog()
	results := make([]*Envelope, len(list))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultLoadConcurrency)
	for i, ds := range list {
		g.Go(func() error {
			env, err := s.Load(gctx, ds.ID)
			if errors.Is(err, ErrDatasetNotFound) {
				s.logger.Warn("dataset missing", slog.String("dataset", ds.ID))
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = env
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*Envelope, 0, len(results))
	for _, env := range results {
		if env != nil {
			out = append(out, env)
		}
	}
	return out, nil
}

// Available lists catalogue entries whose files exist
func (s *Store) Available() []Dataset {
	var out []Dataset
	for _, ds := range Catalog() {
		if _, err := fs.Stat(s.fsys, ds.Path()); err == nil {
			out = append(out, ds)
		}
	}
	return out
}
