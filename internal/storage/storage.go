package storage

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Welpodron/pm-parser/internal/config"
	"github.com/Welpodron/pm-parser/internal/types"
)

// Storage is the interface for all storage backends.
type Storage interface {
	// Store persists a batch of reviews.
	Store(reviews []types.Review) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// Export writes reviews to store in one batch. An empty batch writes nothing
// and returns types.ErrEmptyResult.
func Export(store Storage, reviews []types.Review) error {
	if len(reviews) == 0 {
		return types.ErrEmptyResult
	}
	if err := store.Store(reviews); err != nil {
		return &types.StorageError{Backend: store.Name(), Err: err}
	}
	return nil
}

// ResultFileName names an export file after the moment it was written:
// "Результат парсинга DD.MM.YYYY HH_MM_SS.<ext>".
func ResultFileName(t time.Time, ext string) string {
	return fmt.Sprintf("Результат парсинга %s.%s", t.Format("02.01.2006 15_04_05"), ext)
}

// New creates the configured file backend, fanned out to MongoDB when that
// is enabled.
func New(cfg *config.StorageConfig, logger *slog.Logger) (Storage, error) {
	file, err := NewFileStorage(cfg.Type, cfg.OutputDir, logger)
	if err != nil {
		return nil, err
	}
	if !cfg.Mongo.Enabled {
		return file, nil
	}

	mongo, err := NewMongoStorage(cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection, logger)
	if err != nil {
		_ = file.Close()
		return nil, &types.StorageError{Backend: "mongodb", Err: err}
	}
	return NewMultiStorage([]Storage{file, mongo}, logger), nil
}

// PathOf returns the file written by store, or "" if it wrote none.
func PathOf(store Storage) string {
	if p, ok := store.(interface{ Path() string }); ok {
		return p.Path()
	}
	return ""
}
