package fastbound

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FastBound/Support/internal/domain"
)

const testKey = "0123456789012345678901234567890123456789012" // 43 chars

func newTestClient(t *testing.T, srv *httptest.Server, shape AuthShape) *Client {
	t.Helper()
	c := New(Config{
		Server:        srv.URL,
		Account:       "acme",
		APIKey:        testKey,
		AuditUser:     "ops@example.com",
		Auth:          shape,
		Max429Retries: 2,
	}, nil)
	// don't actually sleep in tests
	c.limiter.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func TestRequestCarriesAuthAndAuditHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		fmt.Fprint(w, `{"name":"Acme Arms","fflNumber":"1-23-456-78-9A-12345"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, AuthKeyOnly)
	_, err := c.GetAccount(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "ops@example.com", got.Get("X-AuditUser"))
	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte(":"+testKey))
	assert.Equal(t, wantAuth, got.Get("Authorization"), "key-only shape: empty username, key as password")
}

func TestAccountKeyAuthShape(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"name":"Acme Arms"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, AuthAccountKey)
	_, err := c.GetAccount(context.Background())
	require.NoError(t, err)

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("acme:"+testKey))
	assert.Equal(t, want, got)
}

func TestListContactsPaginatesByPageIndex(t *testing.T) {
	// skip is a page index: 0, 1, 2 — not an item offset
	var skips []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/acme/api/Contacts", r.URL.Path)
		require.Equal(t, "100", r.URL.Query().Get("take"))
		skip := r.URL.Query().Get("skip")
		skips = append(skips, skip)

		page, _ := strconv.Atoi(skip)
		count := 100
		if page == 2 {
			count = 40 // short page ends pagination
		}
		contacts := make([]domain.Contact, count)
		for i := range contacts {
			contacts[i] = domain.Contact{
				ID:        fmt.Sprintf("id-%d-%d", page, i),
				FirstName: "C",
				LastName:  fmt.Sprintf("Page%dRow%d", page, i),
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"contacts": contacts, "records": 240})
	}))
	defer srv.Close()

	c := newTestClient(t, srv, AuthKeyOnly)
	all, err := c.ListContacts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"0", "1", "2"}, skips)
	assert.Len(t, all, 240)
}

func TestCreateContactLocationOnly(t *testing.T) {
	const id = "2f1f9707-0dbb-4662-9517-12b187dbbe2f"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, false, body["lookupFFL"])

		w.Header().Set("Location", "http://"+r.Host+"/acme/api/Contacts/"+id)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, AuthKeyOnly)
	contact := domain.Contact{
		FFLNumber:       "1-23-456-78-9A-12345",
		PremiseAddress1: "100 Main St",
		PremiseCity:     "Knoxville",
		PremiseState:    "TN",
		PremiseZipCode:  "37902",
	}
	created, err := c.CreateContact(context.Background(), contact, false)
	require.NoError(t, err)

	assert.Equal(t, id, created.ID)
	assert.Equal(t, contact.FFLNumber, created.FFLNumber, "fields we sent survive a Location-only 201")
}

func Test429RetriesOnceAfterReset(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Unix(), 10))
		if calls == 1 {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("X-RateLimit-Remaining", "59")
		fmt.Fprint(w, `{"contacts":[],"records":0}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, AuthKeyOnly)
	_, err := c.ListContacts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func Test429RetriesAreBounded(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, AuthKeyOnly) // Max429Retries: 2
	_, err := c.ListContacts(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMaxRetries))
	assert.Equal(t, 3, calls, "initial attempt plus two retries")
}

func TestPlanLimitSurfacesAsTypedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"message":"Your plan limit has been reached."}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, AuthKeyOnly)
	_, err := c.CreateAndCommitAcquisition(context.Background(), AcquisitionRequest{})
	require.Error(t, err)

	var planErr *PlanLimitError
	require.True(t, errors.As(err, &planErr))
	assert.Contains(t, planErr.Message, "plan limit")
}

func TestAPIErrorCarriesContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"errors":[{"field":"serial","message":"is required"}]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, AuthKeyOnly)
	err := c.MergeContacts(context.Background(), "w", "l")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.MethodPost, apiErr.Method)
	assert.Equal(t, "/acme/api/Contacts/Merge", apiErr.Path)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Contains(t, apiErr.Error(), "serial: is required")
}

func TestItemsAcquiredSince(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/acme/api/Items", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("acquiredOnOrAfter"))
		fmt.Fprint(w, `{"items":[],"records":812}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, AuthKeyOnly)
	count, err := c.ItemsAcquiredSince(context.Background(), time.Now().AddDate(0, 0, -365))
	require.NoError(t, err)
	assert.Equal(t, 812, count)
}

func TestDecodeContactListShapes(t *testing.T) {
	wrapped := []byte(`{"contacts":[{"id":"a"},{"id":"b"}],"records":2}`)
	bare := []byte(`[{"id":"a"}]`)
	single := []byte(`{"id":"a","firstName":"J","lastName":"S"}`)

	list, err := decodeContactList(wrapped)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = decodeContactList(bare)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = decodeContactList(single)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].ID)

	list, err = decodeContactList([]byte(`{"contacts":[],"records":0}`))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTrailingGUID(t *testing.T) {
	assert.Equal(t,
		"2f1f9707-0dbb-4662-9517-12b187dbbe2f",
		trailingGUID("https://cloud.fastbound.com/acme/api/Contacts/2f1f9707-0dbb-4662-9517-12b187dbbe2f"))
	assert.Equal(t, "", trailingGUID("https://cloud.fastbound.com/acme/api/Contacts/not-a-guid"))
	assert.Equal(t, "", trailingGUID(""))
}

func TestDownloadBoundBookNotReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, AuthAccountKey)
	_, err := c.DownloadBoundBook(context.Background())
	assert.True(t, errors.Is(err, ErrBoundBookNotReady))
}

func TestDownloadBoundBookFollowsSignedURL(t *testing.T) {
	blob := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"), "signed URL fetch must not leak credentials")
		w.Write([]byte("%PDF-1.7 fake"))
	}))
	defer blob.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/acme/api/Downloads/BoundBook", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"url": blob.URL + "/book.pdf"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv, AuthAccountKey)
	pdf, err := c.DownloadBoundBook(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
}
