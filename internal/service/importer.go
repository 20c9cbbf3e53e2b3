package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/FastBound/Support/internal/domain"
	"github.com/FastBound/Support/internal/fastbound"
	"github.com/FastBound/Support/internal/repository"
)

// TransactionAPI is the slice of the FastBound client the importer needs.
type TransactionAPI interface {
	CreateAndCommitAcquisition(ctx context.Context, req fastbound.AcquisitionRequest) (string, error)
	CreateAndCommitDisposition(ctx context.Context, req fastbound.DispositionRequest) (string, error)
	ItemsAcquiredSince(ctx context.Context, since time.Time) (int, error)
}

// Row statuses recorded in the result log.
const (
	RowSuccess = "Success"
	RowFailed  = "Failed"
	RowSkipped = "Skipped"
)

// RowResult is the per-row outcome written to the result log.
type RowResult struct {
	Line          int
	Status        string
	Message       string
	ContactID     string
	AcquisitionID string
	DispositionID string
}

// ImportSummary is the final tally a run reports.
type ImportSummary struct {
	Succeeded int
	Failed    int
	Skipped   int
}

// Importer turns item CSV rows into acquisitions and dispositions,
// resolving each row's contacts through the pool first so repeated
// counterparties cost one API call total.
type Importer struct {
	resolver         *Resolver
	api              TransactionAPI
	pool             *repository.ContactPool
	dispositionTypes domain.DispositionTypeMap
	skipInvalid      bool
	logger           *zap.Logger
}

// NewImporter creates an importer. With skipInvalid set (the default for
// the CLI), rows failing validation are recorded as Skipped; otherwise the
// first invalid row aborts the batch with a ValidationError.
func NewImporter(
	resolver *Resolver,
	api TransactionAPI,
	pool *repository.ContactPool,
	dispositionTypes domain.DispositionTypeMap,
	skipInvalid bool,
	logger *zap.Logger,
) *Importer {
	if dispositionTypes == nil {
		dispositionTypes = domain.DefaultDispositionTypeMap()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{
		resolver:         resolver,
		api:              api,
		pool:             pool,
		dispositionTypes: dispositionTypes,
		skipInvalid:      skipInvalid,
		logger:           logger,
	}
}

// Run processes the rows sequentially. Per-row errors are recorded and the
// batch continues; only two things stop it early: context cancellation and
// a PlanLimitError, which is returned to the caller enriched with the
// trailing-365-day acquisition count so the operator can size an upgrade.
func (im *Importer) Run(ctx context.Context, rows []domain.ItemRow) ([]RowResult, ImportSummary, error) {
	results := make([]RowResult, 0, len(rows))
	var summary ImportSummary

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return results, summary, err
		}

		result, err := im.processRow(ctx, row)
		if err != nil {
			var planErr *fastbound.PlanLimitError
			if errors.As(err, &planErr) {
				im.enrichPlanLimit(ctx, planErr)
				im.logger.Error("plan limit reached, stopping batch",
					zap.Int("line", row.Line),
					zap.Int("trailing_year_count", planErr.TrailingYearCount),
				)
				return results, summary, planErr
			}
			var valErr *ValidationError
			if errors.As(err, &valErr) && !im.skipInvalid {
				return results, summary, valErr
			}
			// anything else is a per-row failure; keep going
		}

		results = append(results, result)
		switch result.Status {
		case RowSuccess:
			summary.Succeeded++
		case RowSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}

	im.logger.Info("import finished",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
	)
	return results, summary, nil
}

func (im *Importer) processRow(ctx context.Context, row domain.ItemRow) (RowResult, error) {
	result := RowResult{Line: row.Line}

	if errs := validateRow(row); len(errs) > 0 {
		valErr := &ValidationError{Line: row.Line, Errors: errs}
		result.Status = RowSkipped
		result.Message = valErr.Error()
		im.logger.Warn("skipping invalid row", zap.Int("line", row.Line), zap.String("reason", valErr.Error()))
		return result, valErr
	}

	acquireContact, err := im.resolver.GetOrCreate(ctx, im.pool, row.AcquireContact)
	if err != nil {
		result.Status = RowFailed
		result.Message = "resolving acquisition contact: " + err.Error()
		return result, err
	}
	result.ContactID = acquireContact.ID

	acquireType := row.AcquireType
	if acquireType == "" {
		acquireType = "Purchase"
	}
	acqReq := fastbound.AcquisitionRequest{
		Date:           row.AcquireDate,
		Type:           acquireType,
		ContactID:      acquireContact.ID,
		IdempotencyKey: fastbound.IdempotencyKey(row.AcquireDate, acquireContact.ID, row.Serial),
		Items:          []domain.Item{row.WireItem()},
	}
	acqID, err := im.api.CreateAndCommitAcquisition(ctx, acqReq)
	if err != nil {
		result.Status = RowFailed
		result.Message = "creating acquisition: " + err.Error()
		return result, err
	}
	result.AcquisitionID = acqID

	if row.HasDisposition() {
		disposeContact, err := im.resolver.GetOrCreate(ctx, im.pool, row.DisposeContact)
		if err != nil {
			result.Status = RowFailed
			result.Message = "resolving disposition contact: " + err.Error()
			return result, err
		}
		dispReq := fastbound.DispositionRequest{
			Date:           row.DisposeDate,
			Type:           im.dispositionTypes.Resolve(row.DisposeType),
			ContactID:      disposeContact.ID,
			IdempotencyKey: fastbound.IdempotencyKey(row.DisposeDate, disposeContact.ID, row.Serial),
			Items:          []domain.Item{row.WireItem()},
		}
		dispID, err := im.api.CreateAndCommitDisposition(ctx, dispReq)
		if err != nil {
			result.Status = RowFailed
			result.Message = "creating disposition: " + err.Error()
			return result, err
		}
		result.DispositionID = dispID
	}

	result.Status = RowSuccess
	return result, nil
}

// enrichPlanLimit fills in how many items were acquired in the trailing
// 365-day window. Best effort: if the count query itself fails, the plan
// error still surfaces without it.
func (im *Importer) enrichPlanLimit(ctx context.Context, planErr *fastbound.PlanLimitError) {
	since := time.Now().AddDate(0, 0, -365)
	count, err := im.api.ItemsAcquiredSince(ctx, since)
	if err != nil {
		im.logger.Warn("could not count trailing-year acquisitions", zap.Error(err))
		return
	}
	planErr.TrailingYearCount = count
}

func validateRow(row domain.ItemRow) []error {
	var errs []error
	if row.AcquireDate == "" {
		errs = append(errs, fmt.Errorf("Acquire_Date is required"))
	}
	if row.Serial == "" {
		errs = append(errs, fmt.Errorf("Serial is required"))
	}
	errs = append(errs, row.AcquireContact.Validate()...)
	if row.HasDisposition() {
		for _, err := range row.DisposeContact.Validate() {
			errs = append(errs, fmt.Errorf("disposition contact: %w", err))
		}
	}
	return errs
}
