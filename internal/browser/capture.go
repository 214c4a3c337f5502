// internal/browser/capture.go
package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// FileCapture writes screenshot captures as PNG files under one directory.
type FileCapture struct {
	dir    string
	logger *zap.Logger
}

// NewFileCapture creates a capture sink rooted at dir. The directory is
// created lazily on first save.
func NewFileCapture(dir string, logger *zap.Logger) *FileCapture {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileCapture{dir: dir, logger: logger.Named("capture")}
}

// Save writes one capture. Names are sanitized to a single path component so
// scenario-supplied labels cannot escape the capture directory.
func (c *FileCapture) Save(ctx context.Context, name string, png []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("browser: creating capture dir: %w", err)
	}

	base := sanitizeName(name)
	path := filepath.Join(c.dir, base+".png")
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("browser: writing capture: %w", err)
	}
	c.logger.Debug("Screenshot saved", zap.String("path", path), zap.Int("bytes", len(png)))
	return nil
}

func sanitizeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "capture"
	}
	return b.String()
}
