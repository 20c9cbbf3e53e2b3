package fastbound

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/FastBound/Support/internal/domain"
)

// suppressEmailHeader opts a disposition out of the transferee
// notification email. Bulk historical imports set it so a thousand-row
// backfill does not send a thousand emails.
const suppressEmailHeader = "X-SuppressDispositionEmail"

// AcquisitionRequest is the body for POST .../Acquisitions/CreateAndCommit.
type AcquisitionRequest struct {
	Date           string        `json:"date"`
	Type           string        `json:"type"`
	ContactID      string        `json:"contactId"`
	PONumber       string        `json:"poNumber,omitempty"`
	InvoiceNumber  string        `json:"invoiceNumber,omitempty"`
	Note           string        `json:"note,omitempty"`
	IdempotencyKey string        `json:"idempotencyKey,omitempty"`
	Items          []domain.Item `json:"items"`
}

// DispositionRequest is the body for POST .../Dispositions/CreateAndCommit.
type DispositionRequest struct {
	Date           string        `json:"date"`
	Type           string        `json:"type"`
	ContactID      string        `json:"contactId"`
	PONumber       string        `json:"poNumber,omitempty"`
	InvoiceNumber  string        `json:"invoiceNumber,omitempty"`
	Note           string        `json:"note,omitempty"`
	IdempotencyKey string        `json:"idempotencyKey,omitempty"`
	Items          []domain.Item `json:"items"`
}

// IdempotencyKey hashes the fields that make a transaction unique, so a
// re-run of the same CSV cannot double-book a row.
func IdempotencyKey(fields ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(fields, "\n")))
	return fmt.Sprintf("%x", sum)
}

// CreateAndCommitAcquisition books an inbound transaction and returns its
// server-assigned ID (from the body, or the Location header for 201s).
func (c *Client) CreateAndCommitAcquisition(ctx context.Context, req AcquisitionRequest) (string, error) {
	res, err := c.do(ctx, http.MethodPost, c.accountPath("/Acquisitions/CreateAndCommit"), nil, nil, req)
	if err != nil {
		return "", err
	}
	return transactionID(res)
}

// CreateAndCommitDisposition books an outbound transaction and returns its
// server-assigned ID.
func (c *Client) CreateAndCommitDisposition(ctx context.Context, req DispositionRequest) (string, error) {
	var headers map[string]string
	if c.cfg.SuppressDispositionEmails {
		headers = map[string]string{suppressEmailHeader: "true"}
	}
	res, err := c.do(ctx, http.MethodPost, c.accountPath("/Dispositions/CreateAndCommit"), nil, headers, req)
	if err != nil {
		return "", err
	}
	return transactionID(res)
}

// ItemsAcquiredSince counts items acquired on or after the given date. Used
// to size the trailing-365-day window when the plan limit trips.
func (c *Client) ItemsAcquiredSince(ctx context.Context, since time.Time) (int, error) {
	q := url.Values{}
	q.Set("acquiredOnOrAfter", since.Format("2006-01-02"))
	q.Set("take", "1")
	q.Set("skip", "0")

	res, err := c.do(ctx, http.MethodGet, c.accountPath("/Items"), q, nil, nil)
	if err != nil {
		return 0, err
	}
	var env struct {
		Records int `json:"records"`
	}
	if err := json.Unmarshal(res.body, &env); err != nil {
		return 0, fmt.Errorf("GET %s: decoding item count: %w", c.accountPath("/Items"), err)
	}
	return env.Records, nil
}

// transactionID pulls the new record's ID out of either response shape.
func transactionID(res *apiResult) (string, error) {
	if res.id != "" {
		return res.id, nil
	}
	if len(res.body) > 0 {
		var payload struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(res.body, &payload); err == nil && payload.ID != "" {
			return payload.ID, nil
		}
	}
	return "", nil
}
