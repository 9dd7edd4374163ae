package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Welpodron/pm-parser/internal/types"
)

const xlsxSheet = "Sheet1"

// XLSXStorage writes reviews to a single-sheet Excel workbook. Rows are kept
// in memory and the workbook is saved on Close.
type XLSXStorage struct {
	resultFile
	book   *excelize.File
	row    int
	mu     sync.Mutex
	logger *slog.Logger
}

// NewXLSXStorage creates an XLSX storage writing into outputDir.
func NewXLSXStorage(outputDir string, logger *slog.Logger) *XLSXStorage {
	return &XLSXStorage{
		resultFile: resultFile{dir: outputDir, ext: "xlsx", now: time.Now},
		logger:     logger.With("component", "xlsx_storage"),
	}
}

func (s *XLSXStorage) Name() string { return "xlsx" }

func (s *XLSXStorage) Store(reviews []types.Review) error {
	if len(reviews) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.book == nil {
		s.book = excelize.NewFile()
		if err := s.writeRow(types.ReviewColumns); err != nil {
			return fmt.Errorf("write XLSX header: %w", err)
		}
	}

	for _, r := range reviews {
		if err := s.writeRow(r.Row()); err != nil {
			return fmt.Errorf("write XLSX row: %w", err)
		}
	}
	return nil
}

func (s *XLSXStorage) writeRow(values []string) error {
	s.row++
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return err
	}
	return s.book.SetSheetRow(xlsxSheet, cell, &values)
}

func (s *XLSXStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.book == nil {
		return nil
	}
	defer s.book.Close()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	s.path = filepath.Join(s.dir, ResultFileName(s.now(), s.ext))
	if err := s.book.SaveAs(s.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	s.logger.Info("XLSX written", "path", s.path, "reviews", s.row-1)
	return nil
}
