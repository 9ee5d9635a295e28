package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ProofFiles to'lov skrinshotlarini diskka saqlaydi
type ProofFiles struct {
	dir string
}

func NewProofFiles(dir string) *ProofFiles {
	if strings.TrimSpace(dir) == "" {
		dir = "pay_screens"
	}
	return &ProofFiles{dir: dir}
}

// Save writes data under the proofs directory and returns the file path.
func (p *ProofFiles) Save(_ context.Context, name string, data []byte) (string, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("empty proof file name")
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return "", fmt.Errorf("create proofs dir: %w", err)
	}
	path := filepath.Join(p.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write proof: %w", err)
	}
	return path, nil
}
