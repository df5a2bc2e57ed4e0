// Package local implements the backup image store on the local filesystem.
package local

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config captures the parameters for the backup store.
type Config struct {
	// BaseDir is the directory backup copies are written into.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// FileStore writes one backup file per enriched disc.
type FileStore struct {
	baseDir string
}

// New creates the backup directory if needed and verifies it is usable.
func New(cfg Config) (*FileStore, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	switch {
	case err == nil && !info.IsDir():
		return nil, fmt.Errorf("base directory path is not a directory")
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create base directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("stat base directory: %w", err)
	}

	return &FileStore{baseDir: cfg.BaseDir}, nil
}

// Put writes data under name inside the backup directory, overwriting any
// previous copy (last writer wins on name collisions). It returns the full
// path of the written file.
func (s *FileStore) Put(name string, data []byte) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("file name is required")
	}

	fullPath := filepath.Join(s.baseDir, name)
	cleanBase := filepath.Clean(s.baseDir)
	if !strings.HasPrefix(filepath.Clean(fullPath), cleanBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected")
	}

	if err := os.WriteFile(fullPath, data, 0o600); err != nil {
		return "", fmt.Errorf("write backup file: %w", err)
	}
	return fullPath, nil
}

var (
	reservedChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// SanitizeName replaces filesystem-reserved characters and whitespace runs
// with underscores.
func SanitizeName(name string) string {
	return whitespaceRun.ReplaceAllString(reservedChars.ReplaceAllString(name, "_"), "_")
}

// BackupFilename derives the deterministic backup name for a disc. Two
// discs with identical sanitized names collide; the attempt ledger keeps
// the disc id alongside the filename so collisions stay detectable.
func BackupFilename(manufacturer, model string) string {
	return fmt.Sprintf("%s_%s.png", SanitizeName(manufacturer), SanitizeName(model))
}
