package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// LocalProvider writes artifacts under a base directory.
type LocalProvider struct {
	basePath string
}

func NewLocalProvider(basePath string) *LocalProvider {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		slog.Error("failed to create storage directory", "path", basePath, "error", err)
	}
	return &LocalProvider{basePath: basePath}
}

func (p *LocalProvider) StreamToFile(ctx context.Context, key string) (io.WriteCloser, <-chan error) {
	errChan := make(chan error, 1)

	fullPath := filepath.Join(p.basePath, key)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		errChan <- fmt.Errorf("create directory for %s: %w", key, err)
		close(errChan)
		return nil, errChan
	}

	f, err := os.Create(fullPath)
	if err != nil {
		errChan <- fmt.Errorf("create %s: %w", fullPath, err)
		close(errChan)
		return nil, errChan
	}

	return &localWriter{f: f, errChan: errChan, path: fullPath}, errChan
}

func (p *LocalProvider) OpenFile(ctx context.Context, key string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(p.basePath, key))
}

func (p *LocalProvider) Location(key string) string {
	abs, _ := filepath.Abs(filepath.Join(p.basePath, key))
	return "file://" + abs
}

// localWriter closes the error channel once the file is closed, mirroring the
// completion signal of the streaming providers.
type localWriter struct {
	f       *os.File
	errChan chan error
	path    string
}

func (w *localWriter) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

func (w *localWriter) Close() error {
	err := w.f.Close()
	if err == nil {
		slog.Debug("local artifact written", "path", w.path)
	}
	w.errChan <- err
	close(w.errChan)
	return err
}
