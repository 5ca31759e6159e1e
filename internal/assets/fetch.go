package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"bananalab/internal/blob"
	"bananalab/internal/filesystem"
)

// Source labels used in logs and metrics.
const (
	SourceHTTP = "http"
	SourceData = "data"
	SourceBlob = "blob"
	SourceFile = "file"
)

// DefaultMaxBytes caps a single fetched asset.
const DefaultMaxBytes = 64 << 20

var errTooLarge = errors.New("asset exceeds size limit")

// Fetcher retrieves the encoded bytes behind a reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, ref string) ([]byte, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, ref string) ([]byte, error) {
	return f(ctx, ref)
}

// SourceOf classifies a reference.
func SourceOf(ref string) string {
	lower := strings.ToLower(ref)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return SourceHTTP
	case blob.IsDataURI(ref):
		return SourceData
	case blob.IsHandle(ref):
		return SourceBlob
	default:
		return SourceFile
	}
}

// DefaultFetcher resolves every supported reference kind.
type DefaultFetcher struct {
	// Client performs http(s) requests. nil uses http.DefaultClient.
	Client *http.Client
	// Blobs resolves blob handles. nil makes blob references fail.
	Blobs *blob.Registry
	// BaseDir anchors relative file paths.
	BaseDir string
	// MaxBytes caps a fetched asset. Zero means DefaultMaxBytes.
	MaxBytes int64
}

// Fetch implements Fetcher.
func (f *DefaultFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	switch SourceOf(ref) {
	case SourceHTTP:
		return f.fetchHTTP(ctx, ref)
	case SourceData:
		_, data, err := blob.ParseDataURI(ref)
		return data, err
	case SourceBlob:
		if f.Blobs == nil {
			return nil, fmt.Errorf("no blob registry for %s", ref)
		}
		obj, ok := f.Blobs.Resolve(ref)
		if !ok {
			return nil, fmt.Errorf("blob handle %s revoked or unknown", ref)
		}
		return obj.Data, nil
	default:
		return f.readFile(ref)
	}
}

func (f *DefaultFetcher) limit() int64 {
	if f.MaxBytes > 0 {
		return f.MaxBytes
	}
	return DefaultMaxBytes
}

func (f *DefaultFetcher) fetchHTTP(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/*")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Debug("failed to close response body for %s: %v", ref, cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.limit()+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.limit() {
		return nil, errTooLarge
	}
	return data, nil
}

func (f *DefaultFetcher) readFile(ref string) ([]byte, error) {
	path := ref
	if strings.HasPrefix(strings.ToLower(ref), "file://") {
		u, err := url.Parse(ref)
		if err != nil {
			return nil, err
		}
		path = u.Path
	}
	if !filepath.IsAbs(path) && f.BaseDir != "" {
		path = filepath.Join(f.BaseDir, path)
	}

	retry := filesystem.DefaultRetryConfig()
	info, err := filesystem.Stat(path, retry)
	if err != nil {
		return nil, err
	}
	if info.Size() > f.limit() {
		return nil, errTooLarge
	}
	return filesystem.ReadFile(path, retry)
}
