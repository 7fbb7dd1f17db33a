// Package blob provides a local-directory implementation of the invoice
// upload backend. Production deployments point the engine at an object
// store instead; this keeps dev and tests self-contained.
package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Local stores uploaded files under a root directory and returns file://
// URLs. Paths are sanitized to stay inside the root.
type Local struct {
	Root string
}

func NewLocal(root string) *Local {
	return &Local{Root: root}
}

// Upload writes the blob and returns its URL.
func (l *Local) Upload(_ context.Context, path string, data []byte) (string, error) {
	clean := filepath.Clean("/" + path)
	if strings.Contains(clean, "..") {
		return "", fmt.Errorf("invalid blob path %q", path)
	}
	full := filepath.Join(l.Root, clean)

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	return "file://" + full, nil
}
