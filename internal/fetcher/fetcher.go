// Package fetcher downloads and parses upstream data: HTTP with per-host
// rate limiting and retry, ZIP extraction, and streaming CSV parsing.
package fetcher

import (
	"context"
	"io"
)

// Fetcher downloads remote artifacts.
type Fetcher interface {
	Download(ctx context.Context, rawURL string) (io.ReadCloser, error)
	DownloadToFile(ctx context.Context, rawURL string, path string) (int64, error)
}
