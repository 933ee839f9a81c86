package sampler

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// Source is something an image can be read from. Key identifies the
// content for caching; two sources with equal keys must yield the same
// image.
type Source interface {
	Key() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

type bytesSource struct {
	key  string
	data []byte
}

// Bytes wraps in-memory encoded image data. The key is derived from the
// content hash.
func Bytes(data []byte) Source {
	h := fnv.New64a()
	h.Write(data)
	return bytesSource{key: fmt.Sprintf("bytes:%016x", h.Sum64()), data: data}
}

// NamedBytes wraps in-memory data under a caller-chosen cache key.
func NamedBytes(key string, data []byte) Source {
	return bytesSource{key: key, data: data}
}

func (s bytesSource) Key() string { return s.key }

func (s bytesSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

type fileSource struct {
	path string
}

// File reads an image from disk.
func File(path string) Source {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return fileSource{path: path}
}

func (s fileSource) Key() string { return "file:" + s.path }

func (s fileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(s.path)
}

type urlSource struct {
	url    string
	client *http.Client
}

// URL fetches an image over HTTP. A nil client means http.DefaultClient.
func URL(url string, client *http.Client) Source {
	if client == nil {
		client = http.DefaultClient
	}
	return urlSource{url: url, client: client}
}

func (s urlSource) Key() string { return s.url }

func (s urlSource) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %s", s.url, resp.Status)
	}
	return resp.Body, nil
}
