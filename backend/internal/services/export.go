package services

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"sportsgraph/backend/internal/graph"
	apperrors "sportsgraph/backend/pkg/errors"
)

// ExportResult reports where the edge list was written
type ExportResult struct {
	Success bool   `json:"success"`
	Path    string `json:"path"`
}

// ExportEdgesToCSV writes Person-Person friendship and participation edges as
// a source,target CSV. A path ending in .gz is gzip-compressed. An empty path
// uses the configured export path. The file is written beside its final
// location and renamed into place once complete.
func (s *GraphService) ExportEdgesToCSV(ctx context.Context, path string) (*ExportResult, error) {
	if strings.TrimSpace(path) == "" {
		path = s.exportPath
	}
	if path == "" {
		return nil, apperrors.NewValidationError("path", "is required")
	}

	rows, err := s.repo.GetExportEdges(ctx)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperrors.NewExportError(path, err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return nil, apperrors.NewExportError(path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := writeEdges(tmp, rows, strings.HasSuffix(path, ".gz")); err != nil {
		tmp.Close()
		return nil, apperrors.NewExportError(path, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, apperrors.NewExportError(path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return nil, apperrors.NewExportError(path, err)
	}

	s.logger.Info("Edges exported",
		zap.String("path", path),
		zap.Int("edges", len(rows)),
	)
	return &ExportResult{Success: true, Path: path}, nil
}

func writeEdges(w io.Writer, rows []graph.EdgeRow, compress bool) error {
	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(w)
		w = gz
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"source", "target"}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write([]string{row.Source, row.Target}); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	if gz != nil {
		return gz.Close()
	}
	return nil
}
