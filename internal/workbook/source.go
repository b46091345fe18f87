package workbook

import (
	"context"
	"errors"

	"github.com/ignite/offer-monitor/internal/datanorm"
)

// FileSource loads a snapshot from a CSV or workbook on disk. The file is
// re-read on every Load so scheduled runs pick up replacements.
type FileSource struct {
	Path string
}

// NewFileSource creates a source for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Load reads and decodes the file.
func (s *FileSource) Load(ctx context.Context) (*datanorm.Snapshot, error) {
	if s.Path == "" {
		return nil, errors.New("file source has no path")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadFile(s.Path)
}
