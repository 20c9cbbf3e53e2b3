package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FastBound/Support/internal/domain"
	"github.com/FastBound/Support/internal/fastbound"
	"github.com/FastBound/Support/internal/repository"
)

type fakeTransactionAPI struct {
	acquisitions []fastbound.AcquisitionRequest
	dispositions []fastbound.DispositionRequest
	acqErr       error
	itemCount    int
}

func (f *fakeTransactionAPI) CreateAndCommitAcquisition(_ context.Context, req fastbound.AcquisitionRequest) (string, error) {
	if f.acqErr != nil {
		return "", f.acqErr
	}
	f.acquisitions = append(f.acquisitions, req)
	return "acq-1", nil
}

func (f *fakeTransactionAPI) CreateAndCommitDisposition(_ context.Context, req fastbound.DispositionRequest) (string, error) {
	f.dispositions = append(f.dispositions, req)
	return "disp-1", nil
}

func (f *fakeTransactionAPI) ItemsAcquiredSince(context.Context, time.Time) (int, error) {
	return f.itemCount, nil
}

func smithRow() domain.ItemRow {
	return domain.ItemRow{
		Line:         2,
		Manufacturer: "Glock",
		Country:      "Austria",
		Model:        "G17",
		Caliber:      "9mm",
		ItemType:     "Pistol",
		Serial:       "ABC123456",
		AcquireDate:  "2026-08-01",
		AcquireContact: domain.Contact{
			FirstName:       "John",
			LastName:        "Smith",
			PremiseAddress1: "100 Main St",
			PremiseCity:     "Knoxville",
			PremiseState:    "TN",
			PremiseZipCode:  "37902",
		},
	}
}

func newTestImporter(contacts *fakeContactAPI, txn *fakeTransactionAPI, skipInvalid bool) (*Importer, *repository.ContactPool) {
	pool := repository.NewContactPool()
	resolver := NewResolver(contacts, nil, nil)
	importer := NewImporter(resolver, txn, pool, nil, skipInvalid, nil)
	return importer, pool
}

func TestRunAcquisitionOnly(t *testing.T) {
	contacts := &fakeContactAPI{createResult: echoWithID("c-1")}
	txn := &fakeTransactionAPI{}
	importer, pool := newTestImporter(contacts, txn, true)

	results, summary, err := importer.Run(context.Background(), []domain.ItemRow{smithRow()})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, RowSuccess, results[0].Status)
	assert.Equal(t, "c-1", results[0].ContactID)
	assert.Equal(t, "acq-1", results[0].AcquisitionID)
	assert.Empty(t, results[0].DispositionID)
	assert.Equal(t, ImportSummary{Succeeded: 1}, summary)

	require.Len(t, contacts.creates, 1, "no existing contacts, exactly one create")
	require.Len(t, txn.acquisitions, 1)
	assert.Empty(t, txn.dispositions, "Dispose_Date is empty, no disposition call")

	acq := txn.acquisitions[0]
	assert.Equal(t, "2026-08-01", acq.Date)
	assert.Equal(t, "Purchase", acq.Type, "default when Acquire_Type is blank")
	assert.Equal(t, "c-1", acq.ContactID)
	assert.NotEmpty(t, acq.IdempotencyKey)
	require.Len(t, acq.Items, 1)
	assert.Equal(t, "ABC123456", acq.Items[0].Serial)

	assert.Equal(t, 1, pool.Len())
}

func TestRunWithDisposition(t *testing.T) {
	ids := []string{"c-1", "c-2"}
	contacts := &fakeContactAPI{createResult: func(c domain.Contact) domain.Contact {
		c.ID, ids = ids[0], ids[1:]
		return c
	}}
	txn := &fakeTransactionAPI{}
	importer, _ := newTestImporter(contacts, txn, true)

	row := smithRow()
	row.DisposeDate = "2026-08-15"
	row.DisposeType = "Hey Pee Eye"
	row.DisposeContact = domain.Contact{
		OrganizationName: "Acme Arms",
		PremiseAddress1:  "200 Commerce St",
		PremiseCity:      "Nashville",
		PremiseState:     "TN",
		PremiseZipCode:   "37201",
	}

	results, summary, err := importer.Run(context.Background(), []domain.ItemRow{row})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, RowSuccess, results[0].Status)
	assert.Equal(t, "disp-1", results[0].DispositionID)
	assert.Equal(t, 1, summary.Succeeded)

	require.Len(t, txn.dispositions, 1)
	assert.Equal(t, "Regular", txn.dispositions[0].Type, "legacy source category maps to Regular")
	assert.Equal(t, "c-2", txn.dispositions[0].ContactID)
}

func TestRunRepeatedCounterpartyResolvesOnce(t *testing.T) {
	contacts := &fakeContactAPI{createResult: echoWithID("c-1")}
	txn := &fakeTransactionAPI{}
	importer, _ := newTestImporter(contacts, txn, true)

	rowA := smithRow()
	rowB := smithRow()
	rowB.Line = 3
	rowB.Serial = "XYZ987654"

	_, summary, err := importer.Run(context.Background(), []domain.ItemRow{rowA, rowB})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Len(t, contacts.creates, 1, "second row matched the pooled contact")
	assert.Len(t, txn.acquisitions, 2)
}

func TestRunSkipsInvalidRows(t *testing.T) {
	contacts := &fakeContactAPI{createResult: echoWithID("c-1")}
	txn := &fakeTransactionAPI{}
	importer, _ := newTestImporter(contacts, txn, true)

	bad := smithRow()
	bad.AcquireContact.PremiseZipCode = ""
	good := smithRow()
	good.Line = 3

	results, summary, err := importer.Run(context.Background(), []domain.ItemRow{bad, good})
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, RowSkipped, results[0].Status)
	assert.Contains(t, results[0].Message, "premiseZipCode")
	assert.Equal(t, RowSuccess, results[1].Status)
	assert.Equal(t, ImportSummary{Succeeded: 1, Skipped: 1}, summary)
	assert.Len(t, txn.acquisitions, 1, "invalid row made no API calls")
}

func TestRunInvalidRowAbortsWhenSkipDisabled(t *testing.T) {
	contacts := &fakeContactAPI{createResult: echoWithID("c-1")}
	txn := &fakeTransactionAPI{}
	importer, _ := newTestImporter(contacts, txn, false)

	bad := smithRow()
	bad.AcquireContact.PremiseZipCode = ""

	_, _, err := importer.Run(context.Background(), []domain.ItemRow{bad, smithRow()})
	require.Error(t, err)

	var valErr *ValidationError
	assert.True(t, errors.As(err, &valErr))
	assert.Empty(t, txn.acquisitions)
}

func TestRunFailedRowDoesNotAbortBatch(t *testing.T) {
	contacts := &fakeContactAPI{createResult: echoWithID("c-1")}
	txn := &fakeTransactionAPI{
		acqErr: &fastbound.APIError{Method: "POST", Path: "/acme/api/Acquisitions/CreateAndCommit", Status: 422, Message: "serial: is required"},
	}
	importer, _ := newTestImporter(contacts, txn, true)

	results, summary, err := importer.Run(context.Background(), []domain.ItemRow{smithRow(), smithRow()})
	require.NoError(t, err, "per-row errors never abort the batch")
	require.Len(t, results, 2)
	assert.Equal(t, RowFailed, results[0].Status)
	assert.Contains(t, results[0].Message, "creating acquisition")
	assert.Equal(t, 2, summary.Failed)
}

func TestRunPlanLimitStopsBatchWithCount(t *testing.T) {
	contacts := &fakeContactAPI{createResult: echoWithID("c-1")}
	txn := &fakeTransactionAPI{
		acqErr:    &fastbound.PlanLimitError{Message: "plan limit reached"},
		itemCount: 900,
	}
	importer, _ := newTestImporter(contacts, txn, true)

	_, _, err := importer.Run(context.Background(), []domain.ItemRow{smithRow(), smithRow()})
	require.Error(t, err)

	var planErr *fastbound.PlanLimitError
	require.True(t, errors.As(err, &planErr))
	assert.Equal(t, 900, planErr.TrailingYearCount, "enriched with the trailing-365-day count")
}
