package httpclient

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
)

// maxBodyBytes caps how much of a response we ever read into memory.
// Playlist documents and search-result pages fit comfortably; anything
// larger is a media payload we have no business buffering.
const maxBodyBytes = 4 << 20 // 4 MiB

// ctxBody ties a per-attempt context's cancel func to the response body so
// the deadline is released exactly when the caller is done reading.
type ctxBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *ctxBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	resp.Body.Close()
}

// ReadBody decodes the response body to a UTF-8 string, best effort:
// Content-Encoding br/gzip is unwrapped, the charset from Content-Type is
// honoured via x/net's sniffing reader, and bytes that still fail to decode
// are dropped rather than surfaced as an error. The body is closed.
func ReadBody(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	var r io.Reader = io.LimitReader(resp.Body, maxBodyBytes)

	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "br":
		r = brotli.NewReader(r)
	case "gzip":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return "", err
		}
		defer gz.Close()
		r = gz
	}

	decoded, err := charset.NewReader(r, resp.Header.Get("Content-Type"))
	if err != nil {
		// Unknown charset: fall back to the raw bytes.
		decoded = r
	}
	data, err := io.ReadAll(decoded)
	if err != nil && len(data) == 0 {
		return "", err
	}
	// Truncated or partially undecodable content is still usable input for
	// regex extraction; strip whatever remains invalid.
	return strings.ToValidUTF8(string(data), ""), nil
}
