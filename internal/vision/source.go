package vision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/sortcell/sortcell/internal/geometry"
	"github.com/sortcell/sortcell/internal/monitoring"
	"github.com/sortcell/sortcell/internal/security"
)

// ErrNoFrames indicates the frame directory holds no decodable images yet.
var ErrNoFrames = errors.New("no frames available")

var frameExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// FileSource serves contours from the newest image in a directory that an
// external capture process keeps writing frames into. Every call reprocesses
// the latest frame even when unchanged, so a static scene keeps producing the
// repeated observations the stabilizer needs.
type FileSource struct {
	dir  string
	opts Options
}

// NewFileSource returns a FileSource watching dir.
func NewFileSource(dir string, opts Options) *FileSource {
	return &FileSource{dir: dir, opts: opts}
}

// NextContours loads and processes the most recent frame.
func (s *FileSource) NextContours(ctx context.Context) ([]geometry.Contour, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.latestFrame()
	if err != nil {
		return nil, err
	}
	if err := security.ValidatePathWithinDirectory(path, s.dir); err != nil {
		return nil, fmt.Errorf("reject frame %s: %w", filepath.Base(path), err)
	}

	img, err := imaging.Open(path)
	if err != nil {
		// The capture process may still be mid-write; treat it like a missed
		// frame rather than a hard fault.
		return nil, fmt.Errorf("decode frame %s: %w", filepath.Base(path), err)
	}

	contours := ExtractContours(Binarize(img, s.opts))
	monitoring.Debugf("vision: %s yielded %d contours", filepath.Base(path), len(contours))
	return contours, nil
}

func (s *FileSource) latestFrame() (string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("read frame directory: %w", err)
	}

	var newest string
	var newestTime time.Time
	for _, entry := range entries {
		if entry.IsDir() || !frameExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = entry.Name()
			newestTime = info.ModTime()
		}
	}
	if newest == "" {
		return "", fmt.Errorf("%w in %s", ErrNoFrames, s.dir)
	}
	return filepath.Join(s.dir, newest), nil
}
