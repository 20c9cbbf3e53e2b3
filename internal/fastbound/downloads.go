package fastbound

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// DownloadBoundBook requests the compliant A&D bound book PDF. The book is
// generated nightly; a 204 means today's copy is not ready yet and the
// caller should try again tomorrow (ErrBoundBookNotReady). On success the
// server returns a short-lived URL which is then fetched without auth.
//
// This endpoint family authenticates as account:key; construct the client
// with AuthAccountKey to use it.
func (c *Client) DownloadBoundBook(ctx context.Context) ([]byte, error) {
	res, err := c.do(ctx, http.MethodPost, c.accountPath("/Downloads/BoundBook"), nil, nil, nil)
	if err != nil {
		return nil, err
	}
	if res.status == http.StatusNoContent {
		return nil, ErrBoundBookNotReady
	}

	var payload struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(res.body, &payload); err != nil || payload.URL == "" {
		return nil, fmt.Errorf("POST %s: could not parse download response", c.accountPath("/Downloads/BoundBook"))
	}

	// The signed URL points at blob storage, not the API: fresh client,
	// no credentials, no rate-limit accounting.
	blob := resty.New().SetTimeout(c.cfg.Timeout).SetHeader("User-Agent", userAgent)
	resp, err := blob.R().SetContext(ctx).Get(payload.URL)
	if err != nil {
		return nil, fmt.Errorf("downloading bound book: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("downloading bound book: HTTP %d", resp.StatusCode())
	}
	return resp.Body(), nil
}
