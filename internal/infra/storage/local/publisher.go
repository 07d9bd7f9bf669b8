package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"staycal/internal/app/policies"
)

// Publisher writes exported feeds to a local directory. The HTTP
// server exposes that directory under /exports, which makes this the
// zero-dependency dev-mode publisher.
type Publisher struct {
	Dir     string
	BaseURL string
}

func (p Publisher) Publish(ctx context.Context, filename string, content io.Reader) (string, string, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." {
		return "", "", errors.New("local: filename is required")
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return "", "", fmt.Errorf("local: create export dir: %w", err)
	}
	path := filepath.Join(p.Dir, filename)
	f, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("local: create feed file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, content); err != nil {
		return "", "", fmt.Errorf("local: write feed file: %w", err)
	}
	url := strings.TrimRight(p.BaseURL, "/") + "/" + filename
	return url, path, nil
}

func (p Publisher) Unpublish(ctx context.Context, filePath string) error {
	if strings.TrimSpace(filePath) == "" {
		return nil
	}
	if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("local: remove feed file: %w", err)
	}
	return nil
}

var _ policies.FeedPublisher = Publisher{}
