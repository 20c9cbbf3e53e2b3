package fastbound

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/FastBound/Support/internal/domain"
)

// contactPageSize is the take parameter for contact listing.
const contactPageSize = 100

// ListContacts downloads the full contact pool, page by page.
//
// Pagination quirk: the server's skip parameter is a page index, not an
// item offset. skip=0 is the first hundred, skip=1 the second hundred.
// Treating it as an offset silently re-reads the first page with gaps.
func (c *Client) ListContacts(ctx context.Context) ([]domain.Contact, error) {
	var all []domain.Contact
	for page := 0; ; page++ {
		q := url.Values{}
		q.Set("take", strconv.Itoa(contactPageSize))
		q.Set("skip", strconv.Itoa(page))

		res, err := c.do(ctx, http.MethodGet, c.accountPath("/Contacts"), q, nil, nil)
		if err != nil {
			return nil, err
		}
		contacts, err := decodeContactList(res.body)
		if err != nil {
			return nil, fmt.Errorf("GET %s: %w", c.accountPath("/Contacts"), err)
		}
		all = append(all, contacts...)
		if len(contacts) < contactPageSize {
			break
		}
	}
	c.logger.Info("downloaded contact pool", zap.Int("contacts", len(all)))
	return all, nil
}

// createContactRequest wraps a contact with the lookupFFL flag. When the
// caller has already enriched FFL data the flag must be false, or the
// server re-runs its own FFL lookup and rejects conflicting fields.
type createContactRequest struct {
	domain.Contact
	LookupFFL bool `json:"lookupFFL"`
}

// CreateContact creates a contact and returns it with the server-assigned
// ID when the server provides one. Some endpoints answer 201 with only a
// Location header; then the returned contact carries just the ID. An empty
// ID means the server gave us nothing usable and the caller must recover by
// re-downloading and re-matching.
func (c *Client) CreateContact(ctx context.Context, contact domain.Contact, lookupFFL bool) (domain.Contact, error) {
	body := createContactRequest{Contact: contact, LookupFFL: lookupFFL}
	res, err := c.do(ctx, http.MethodPost, c.accountPath("/Contacts"), nil, nil, body)
	if err != nil {
		return domain.Contact{}, err
	}

	if res.id != "" {
		created := contact
		created.ID = res.id
		return created, nil
	}
	if len(res.body) > 0 {
		created, err := decodeContact(res.body)
		if err != nil {
			return domain.Contact{}, fmt.Errorf("POST %s: %w", c.accountPath("/Contacts"), err)
		}
		if created.ID != "" {
			return created, nil
		}
	}
	// 2xx but no identifiable record
	return domain.Contact{}, nil
}

// mergeContactsRequest is the body for POST .../Contacts/Merge.
type mergeContactsRequest struct {
	WinningContactID string `json:"winningContactId"`
	LosingContactID  string `json:"losingContactId"`
}

// MergeContacts folds the losing contact's records into the winning one.
func (c *Client) MergeContacts(ctx context.Context, winningID, losingID string) error {
	body := mergeContactsRequest{WinningContactID: winningID, LosingContactID: losingID}
	_, err := c.do(ctx, http.MethodPost, c.accountPath("/Contacts/Merge"), nil, nil, body)
	return err
}

// decodeContactList handles the three shapes the contact endpoints produce:
// a wrapped {contacts: [...], records: n} envelope, a bare array, or a
// single object. Decoded once here so callers never see the variance.
func decodeContactList(body []byte) ([]domain.Contact, error) {
	if len(body) == 0 {
		return nil, nil
	}
	if body[0] == '[' {
		var list []domain.Contact
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("decoding contact array: %w", err)
		}
		return list, nil
	}

	var env struct {
		Contacts []domain.Contact `json:"contacts"`
		Records  int              `json:"records"`
	}
	if err := json.Unmarshal(body, &env); err == nil && env.Contacts != nil {
		return env.Contacts, nil
	}

	one, err := decodeContact(body)
	if err != nil {
		return nil, err
	}
	if one.ID == "" && one.Kind() == domain.KindUnknown {
		// an envelope with zero contacts, not a contact
		return nil, nil
	}
	return []domain.Contact{one}, nil
}

func decodeContact(body []byte) (domain.Contact, error) {
	var contact domain.Contact
	if err := json.Unmarshal(body, &contact); err != nil {
		return domain.Contact{}, fmt.Errorf("decoding contact: %w", err)
	}
	return contact, nil
}
