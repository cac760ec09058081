package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// maxImageBytes caps a single reference download at 8 MiB.
	maxImageBytes = 8 << 20

	defaultFetchTimeout = 15 * time.Second
	cacheEntries        = 128
)

// Image is a fetched reference payload ready for inlining.
type Image struct {
	Data     []byte
	MIMEType string
}

// Fetcher downloads user-supplied reference images. Successful fetches are
// cached by URL so repeated generations against the same reference do not
// re-download it.
type Fetcher struct {
	http  *http.Client
	cache *lru.Cache[string, Image]
}

func NewFetcher() (*Fetcher, error) {
	cache, err := lru.New[string, Image](cacheEntries)
	if err != nil {
		return nil, err
	}
	return &Fetcher{
		http:  &http.Client{Timeout: defaultFetchTimeout},
		cache: cache,
	}, nil
}

// Fetch returns the image at url. Callers treat any error as a signal to
// degrade to a text-only request, never as a hard failure.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Image, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return Image{}, fmt.Errorf("assets: url is empty")
	}
	if cached, ok := f.cache.Get(url); ok {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Image{}, fmt.Errorf("assets: build request: %w", err)
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("assets: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Image{}, fmt.Errorf("assets: fetch %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("assets: read body: %w", err)
	}
	if len(data) > maxImageBytes {
		return Image{}, fmt.Errorf("assets: image exceeds %d bytes", maxImageBytes)
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("assets: empty body")
	}

	img := Image{Data: data, MIMEType: sniffMIME(resp.Header.Get("Content-Type"), data)}
	if !strings.HasPrefix(img.MIMEType, "image/") {
		return Image{}, fmt.Errorf("assets: %s is not an image (%s)", url, img.MIMEType)
	}

	f.cache.Add(url, img)
	return img, nil
}

func sniffMIME(header string, data []byte) string {
	if header != "" {
		if mime, _, found := strings.Cut(header, ";"); found || mime != "" {
			mime = strings.TrimSpace(mime)
			if strings.HasPrefix(mime, "image/") {
				return mime
			}
		}
	}
	return http.DetectContentType(data)
}
