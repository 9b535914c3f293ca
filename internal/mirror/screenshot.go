package mirror

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/cristianoliveira/messenger-mirror/internal/config"
	"github.com/cristianoliveira/messenger-mirror/internal/session"
)

// ErrInvalidScreenshotName is returned for names outside [A-Za-z0-9_.-].
var ErrInvalidScreenshotName = errors.New("invalid screenshot name")

var screenshotNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidScreenshotName reports whether name may be used as a screenshot file name.
func ValidScreenshotName(name string) bool {
	return screenshotNamePattern.MatchString(name)
}

// SaveScreenshot writes <dir>/<name>.png and returns its path.
func SaveScreenshot(sess session.Session, dir, name string) (string, error) {
	if !ValidScreenshotName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidScreenshotName, name)
	}
	if err := os.MkdirAll(dir, config.FileModeDir); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}
	path := filepath.Join(dir, name+".png")
	if err := sess.Screenshot(path); err != nil {
		return "", fmt.Errorf("save screenshot %s: %w", name, err)
	}
	return path, nil
}
