package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"lmsrexchange/internal/core"
)

// defaultTimeout bounds the fetch when the caller's context carries no
// deadline of its own, matching the 10-second client timeout used
// around the verification flow's one outbound call.
const defaultTimeout = 10 * time.Second

// HTTPFetcher retrieves a JSON payload over HTTP. source is the full
// URL to GET.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher builds a fetcher with the default 10-second client.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{Timeout: defaultTimeout}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, source string) (map[string]any, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, core.New(core.KindFetchFailed, "build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, core.New(core.KindFetchFailed, "%v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.New(core.KindFetchFailed, "unexpected status %s from %s", resp.Status, source)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, core.New(core.KindFetchFailed, "decode %s: %v", source, err)
	}
	return payload, nil
}

// StubFetcher is a fixed-response Fetcher for tests, avoiding any
// network dependency in the resolver's test suite.
type StubFetcher struct {
	Payload map[string]any
	Err     error
}

func (f *StubFetcher) Fetch(ctx context.Context, source string) (map[string]any, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Payload == nil {
		return nil, fmt.Errorf("stub fetcher: no payload configured for %s", source)
	}
	return f.Payload, nil
}
