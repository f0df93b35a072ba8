package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileBlobStore keeps one file per key under basePath.
type FileBlobStore struct {
	basePath string
}

func NewFileBlobStore(basePath string) (*FileBlobStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileBlobStore{basePath: basePath}, nil
}

func (s *FileBlobStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	filePath, err := s.safeJoin(key)
	if err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read file: %w", err)
	}
	return data, true, nil
}

// Set replaces the value atomically: a temp file is written next to the
// target and renamed over it.
func (s *FileBlobStore) Set(ctx context.Context, key string, data []byte) error {
	filePath, err := s.safeJoin(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.CreateTemp(s.basePath, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmpPath := f.Name()
	if _, err := f.Write(data); err != nil {
		if cerr := f.Close(); cerr != nil {
			slog.Error("failed to close file after write error", "error", cerr)
		}
		if rerr := os.Remove(tmpPath); rerr != nil {
			slog.Error("failed to remove file after write error", "error", rerr)
		}
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		if rerr := os.Remove(tmpPath); rerr != nil {
			slog.Error("failed to remove file after close error", "error", rerr)
		}
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		if rerr := os.Remove(tmpPath); rerr != nil {
			slog.Error("failed to remove file after rename error", "error", rerr)
		}
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}

// safeJoin maps key to a file under basePath and rejects directory traversal.
func (s *FileBlobStore) safeJoin(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty key")
	}

	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	absPath, err := filepath.Abs(filepath.Join(s.basePath, key+".json"))
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal attempt")
	}
	return absPath, nil
}
