// Package netx loads image bytes for upload from a local path or an
// http(s) URL.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Image is a picture ready to be uploaded.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

var httpClient = &http.Client{}

// LoadImage reads src, which is either a file path or an http(s) URL. Sources
// larger than maxSize bytes are rejected.
func LoadImage(ctx context.Context, src string, maxSize int64) (*Image, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return download(ctx, src, maxSize)
	}
	return readFile(src, maxSize)
}

func readFile(name string, maxSize int64) (*Image, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := readLimited(f, maxSize)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return &Image{Name: filepath.Base(name), ContentType: http.DetectContentType(data), Data: data}, nil
}

func download(ctx context.Context, url string, maxSize int64) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: %s", resp.Status)
	}

	data, err := readLimited(resp.Body, maxSize)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	name := path.Base(req.URL.Path)
	if name == "/" || name == "." {
		name = "image"
	}
	return &Image{Name: name, ContentType: ct, Data: data}, nil
}

func readLimited(r io.Reader, maxSize int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("larger than %d bytes", maxSize)
	}
	return data, nil
}
