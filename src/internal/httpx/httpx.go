// Package httpx holds the HTTP client contract shared by the metadata
// lookups.
package httpx

import (
	"fmt"
	"io"
	"net/http"
)

// Doer is the minimal HTTP client interface used across packages.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// UserAgent identifies catalog lookups to metadata providers.
const UserAgent = "frbr-catalog/1.0 (+https://openlibrary.org/developers/api)"

// SetUA sets the UserAgent header on the request.
func SetUA(req *http.Request) {
	if req != nil {
		req.Header.Set("User-Agent", UserAgent)
	}
}

// StatusError reads a short excerpt of a non-200 body into an error.
func StatusError(provider string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("%s: http %d: %s", provider, resp.StatusCode, string(b))
}
