package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Welpodron/pm-parser/internal/types"
)

// resultFile creates the export file on first use, so a run that stores
// nothing leaves no file behind.
type resultFile struct {
	dir  string
	ext  string
	now  func() time.Time
	path string
}

func (r *resultFile) create() (*os.File, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	r.path = filepath.Join(r.dir, ResultFileName(r.now(), r.ext))
	f, err := os.Create(r.path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return f, nil
}

// Path returns the file written so far, or "".
func (r *resultFile) Path() string {
	return r.path
}

// --- CSV Storage ---

// CSVStorage writes reviews as CSV rows under a ReviewColumns header.
type CSVStorage struct {
	resultFile
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewCSVStorage creates a CSV storage writing into outputDir.
func NewCSVStorage(outputDir string, logger *slog.Logger) *CSVStorage {
	return &CSVStorage{
		resultFile: resultFile{dir: outputDir, ext: "csv", now: time.Now},
		logger:     logger.With("component", "csv_storage"),
	}
}

func (s *CSVStorage) Name() string { return "csv" }

func (s *CSVStorage) Store(reviews []types.Review) error {
	if len(reviews) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		f, err := s.create()
		if err != nil {
			return err
		}
		s.file = f
		s.writer = csv.NewWriter(f)
		if err := s.writer.Write(types.ReviewColumns); err != nil {
			return fmt.Errorf("write CSV header: %w", err)
		}
	}

	for _, r := range reviews {
		if err := s.writer.Write(r.Row()); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
		s.count++
	}

	s.writer.Flush()
	return s.writer.Error()
}

func (s *CSVStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	s.writer.Flush()
	s.logger.Info("CSV written", "path", s.path, "reviews", s.count)
	if err := s.writer.Error(); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}

// --- JSONL Storage ---

// JSONLStorage writes reviews as newline-delimited JSON (one object per line).
type JSONLStorage struct {
	resultFile
	file   *os.File
	enc    *json.Encoder
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewJSONLStorage creates a JSONL storage writing into outputDir.
func NewJSONLStorage(outputDir string, logger *slog.Logger) *JSONLStorage {
	return &JSONLStorage{
		resultFile: resultFile{dir: outputDir, ext: "jsonl", now: time.Now},
		logger:     logger.With("component", "jsonl_storage"),
	}
}

func (s *JSONLStorage) Name() string { return "jsonl" }

func (s *JSONLStorage) Store(reviews []types.Review) error {
	if len(reviews) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		f, err := s.create()
		if err != nil {
			return err
		}
		s.file = f
		s.enc = json.NewEncoder(f)
		s.enc.SetEscapeHTML(false)
	}

	for _, r := range reviews {
		if err := s.enc.Encode(r); err != nil {
			return fmt.Errorf("encode JSONL: %w", err)
		}
		s.count++
	}
	return nil
}

func (s *JSONLStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	s.logger.Info("JSONL written", "path", s.path, "reviews", s.count)
	return s.file.Close()
}

// NewFileStorage creates the appropriate file-based storage by type.
func NewFileStorage(storageType, outputDir string, logger *slog.Logger) (Storage, error) {
	switch storageType {
	case "csv", "":
		return NewCSVStorage(outputDir, logger), nil
	case "xlsx":
		return NewXLSXStorage(outputDir, logger), nil
	case "jsonl":
		return NewJSONLStorage(outputDir, logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
