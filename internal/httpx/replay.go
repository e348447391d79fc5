package httpx

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ReplayTransport serves recorded provider responses from a local directory
// instead of hitting the network. Fixtures are named by a hash of the request
// method and URL, with a human-readable host prefix so directories stay
// greppable: "<host>-<hash12>.json".
//
// A request with no matching fixture gets a 404, which adapters degrade the
// same way they degrade any non-2xx from the live marketplace.
type ReplayTransport struct {
	dir string
}

// NewReplayTransport creates a transport reading fixtures from dir.
func NewReplayTransport(dir string) *ReplayTransport {
	return &ReplayTransport{dir: dir}
}

// FixtureName returns the fixture filename for a request, exposed so
// recording tooling and tests agree on the naming scheme.
func FixtureName(method, url string) string {
	sum := sha256.Sum256([]byte(method + " " + url))
	host := "unknown"
	if i := strings.Index(url, "://"); i >= 0 {
		rest := url[i+3:]
		if j := strings.IndexAny(rest, "/?"); j >= 0 {
			rest = rest[:j]
		}
		if rest != "" {
			host = rest
		}
	}
	return fmt.Sprintf("%s-%s.json", host, hex.EncodeToString(sum[:])[:12])
}

// RoundTrip implements http.RoundTripper.
func (t *ReplayTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	path := filepath.Join(t.dir, FixtureName(req.Method, req.URL.String()))

	body, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &http.Response{
				StatusCode: http.StatusNotFound,
				Status:     http.StatusText(http.StatusNotFound),
				Body:       io.NopCloser(strings.NewReader("no fixture recorded for this request")),
				Header:     make(http.Header),
				Request:    req,
			}, nil
		}
		return nil, err
	}

	return &http.Response{
		StatusCode:    http.StatusOK,
		Status:        http.StatusText(http.StatusOK),
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Header:        make(http.Header),
		Request:       req,
	}, nil
}
