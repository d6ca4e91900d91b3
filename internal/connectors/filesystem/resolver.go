package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/niraj-khatiwada/mdr/internal/core/domain"
)

// ResolvePath turns a command-line argument into an absolute file path.
// It accepts file:// URIs and a leading ~ for the home directory.
func ResolvePath(arg string) (string, error) {
	if arg == "" {
		return "", fmt.Errorf("%w: empty path", domain.ErrInvalidInput)
	}
	p := strings.TrimPrefix(arg, "file://")

	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, arg, err)
	}
	return abs, nil
}

// RequireFile resolves arg and checks that it names an existing regular file.
func RequireFile(arg string) (string, error) {
	p, err := ResolvePath(arg)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(p)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", domain.ErrFileNotFound, p)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrFileUnavailable, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, p)
	}
	return p, nil
}
