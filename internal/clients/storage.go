package clients

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var ErrFileNotFound = errors.New("file not found")

type StorageClient struct {
	BaseDir      string // absolute or relative directory to store files
	PublicPrefix string // URL prefix where files are served, e.g. "/files"
	BaseURL      string // optional absolute base URL (scheme+host[:port]) used to build file URLs
}

// NewLocalStorage creates a storage client; baseDir will be created if missing.
func NewLocalStorage(baseDir, publicPrefix, baseURL string) (*StorageClient, error) {
	if baseDir == "" {
		baseDir = "./exports"
	}
	if publicPrefix == "" {
		publicPrefix = "/files"
	}

	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure storage dir %q: %w", baseDir, err)
	}

	return &StorageClient{BaseDir: baseDir, PublicPrefix: publicPrefix, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save writes data under a random prefix ("<hex>_<fileName>") and returns the stored name.
func (s *StorageClient) Save(ctx context.Context, fileName, contentType string, data []byte) (string, error) {
	fileName = filepath.Base(fileName)

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return "", fmt.Errorf("failed to generate file name: %w", err)
	}
	final := fmt.Sprintf("%s_%s", hex.EncodeToString(randBytes), fileName)

	path := filepath.Join(s.BaseDir, final)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize file: %w", err)
	}

	return final, nil
}

// URL returns BaseURL + PublicPrefix + "/" + name, or a relative path when no BaseURL is set.
func (s *StorageClient) URL(_ context.Context, saved string) (string, error) {
	prefix := s.PublicPrefix
	if prefix == "" {
		prefix = "/files"
	}
	if prefix[0] != '/' {
		prefix = "/" + prefix
	}
	return fmt.Sprintf("%s%s/%s", s.BaseURL, strings.TrimRight(prefix, "/"), saved), nil
}

// Resolve maps a stored name back to its path on disk and the name it was saved with.
func (s *StorageClient) Resolve(saved string) (path string, original string, err error) {
	if saved == "" || saved != filepath.Base(saved) || strings.HasPrefix(saved, ".") {
		return "", "", ErrFileNotFound
	}

	path = filepath.Join(s.BaseDir, saved)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", ErrFileNotFound
		}
		return "", "", fmt.Errorf("failed to access file: %w", err)
	}
	if info.IsDir() {
		return "", "", ErrFileNotFound
	}

	original = saved
	if idx := strings.IndexByte(saved, '_'); idx >= 0 {
		original = saved[idx+1:]
	}
	return path, original, nil
}

// CleanupOlderThan deletes files older than d and returns how many were removed.
func (s *StorageClient) CleanupOlderThan(d time.Duration) (int, error) {
	now := time.Now()
	removed := 0
	err := filepath.WalkDir(s.BaseDir, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.IsDir() {
			return nil
		}
		info, err := de.Info()
		if err != nil {
			return nil
		}
		if now.Sub(info.ModTime()) > d {
			if os.Remove(path) == nil {
				removed++
			}
		}
		return nil
	})
	return removed, err
}
