package documents

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxImageBytes = 10 << 20

// ErrImageNotAllowed is returned for image URLs outside the allowed hosts.
var ErrImageNotAllowed = errors.New("imagen fuera de los orígenes permitidos")

// ImageFetcher loads logo and photo bytes referenced by URL.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher decodes data: URLs inline and downloads http(s) URLs whose
// host is on the allow list. Redirects are checked against the same list.
type HTTPFetcher struct {
	Client *http.Client
	hosts  map[string]bool
}

func NewHTTPFetcher(timeout time.Duration, allowedHosts ...string) *HTTPFetcher {
	f := &HTTPFetcher{hosts: make(map[string]bool, len(allowedHosts))}
	for _, h := range allowedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			f.hosts[h] = true
		}
	}
	f.Client = &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return errors.New("too many redirects")
			}
			return f.Allowed(req.URL.String())
		},
	}
	return f
}

// Allowed reports whether raw may be fetched: data: URLs always, http(s)
// URLs only when their host is on the allow list.
func (f *HTTPFetcher) Allowed(raw string) error {
	if strings.HasPrefix(raw, "data:") {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrImageNotAllowed, raw)
	}
	if !f.hosts[strings.ToLower(u.Hostname())] {
		return fmt.Errorf("%w: %s", ErrImageNotAllowed, u.Hostname())
	}
	return nil
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if strings.HasPrefix(url, "data:") {
		return decodeDataURL(url)
	}
	if err := f.Allowed(url); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		if errors.Is(err, ErrImageNotAllowed) {
			return nil, fmt.Errorf("redirect: %w", ErrImageNotAllowed)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}

func decodeDataURL(url string) ([]byte, error) {
	comma := strings.IndexByte(url, ',')
	if comma < 0 || !strings.HasSuffix(url[:comma], ";base64") {
		return nil, fmt.Errorf("unsupported data URL")
	}
	return base64.StdEncoding.DecodeString(url[comma+1:])
}
