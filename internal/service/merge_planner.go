package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FastBound/Support/internal/domain"
)

// MergeAPI is the slice of the FastBound client the planner needs.
type MergeAPI interface {
	MergeContacts(ctx context.Context, winningID, losingID string) error
}

// MergePlanner detects duplicate licensee contacts (same region, district,
// and sequence across renewed licenses) and merges the older records into
// the newest valid one.
type MergePlanner struct {
	api      MergeAPI
	ownerFFL string // the account owner's license; never a merge target
	logger   *zap.Logger
}

// NewMergePlanner creates a planner. ownerFFL is the account's own license
// number from GET /api/Account.
func NewMergePlanner(api MergeAPI, ownerFFL string, logger *zap.Logger) *MergePlanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MergePlanner{api: api, ownerFFL: ownerFFL, logger: logger}
}

// MergePlan is the output of Plan: the pending entries plus the counts the
// merge log reports.
type MergePlan struct {
	Entries []domain.MergeEntry
	Groups  int // RDS groups holding more than one contact
	Invalid int // contacts excluded because license and expiration disagree
}

// expirationLayouts covers the date shapes the API and older exports use.
var expirationLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
}

func parseExpiration(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range expirationLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Plan groups FFL contacts by RDS and emits one entry per older valid
// contact, each merging directly into the group's newest-expiring valid
// contact (not a chain of pairwise merges).
//
// A group member is valid only when its expiration date parses and the
// date agrees with the expiration code embedded in the license number.
// Invalid members are counted and excluded: never merged away, never
// chosen as winner — a contact whose license data is self-contradictory
// needs a human, not an automated merge.
func (p *MergePlanner) Plan(contacts []domain.Contact) MergePlan {
	groups := map[string][]domain.Contact{}
	for _, c := range contacts {
		if strings.TrimSpace(c.FFLNumber) == "" {
			continue
		}
		rds := domain.RDS(c.FFLNumber)
		if rds == "" {
			continue
		}
		groups[rds] = append(groups[rds], c)
	}

	keys := make([]string, 0, len(groups))
	for rds, members := range groups {
		if len(members) < 2 {
			continue // nothing to merge
		}
		keys = append(keys, rds)
	}
	sort.Strings(keys)

	plan := MergePlan{Groups: len(keys)}
	for _, rds := range keys {
		var valid []domain.MergeCandidate
		for _, c := range groups[rds] {
			expires, ok := parseExpiration(c.FFLExpires)
			if !ok || !domain.FFLExpirationMatches(c.FFLNumber, expires) {
				plan.Invalid++
				p.logger.Warn("excluding contact with inconsistent license expiration",
					zap.String("rds", rds),
					zap.String("contact_id", c.ID),
					zap.String("ffl_number", c.FFLNumber),
					zap.String("ffl_expires", c.FFLExpires),
				)
				continue
			}
			valid = append(valid, domain.MergeCandidate{Contact: c, Expires: expires})
		}
		if len(valid) < 2 {
			continue
		}

		sort.SliceStable(valid, func(i, j int) bool {
			return valid[i].Expires.Before(valid[j].Expires)
		})
		winner := valid[len(valid)-1]
		for _, loser := range valid[:len(valid)-1] {
			plan.Entries = append(plan.Entries, domain.MergeEntry{
				RDS:       rds,
				WinnerID:  winner.Contact.ID,
				WinnerFFL: winner.Contact.FFLNumber,
				LoserID:   loser.Contact.ID,
				LoserFFL:  loser.Contact.FFLNumber,
				Status:    domain.MergePlanned,
			})
		}
	}
	return plan
}

// Execute runs the plan. The account owner's contact cannot be target-
// updated through this API, so entries whose winner is the owner's license
// are skipped. One failed merge never aborts the batch. With dryRun set,
// no API calls are made and every non-skipped entry is marked WhatIf.
func (p *MergePlanner) Execute(ctx context.Context, plan MergePlan, dryRun bool) ([]domain.MergeEntry, domain.MergeSummary, error) {
	entries := make([]domain.MergeEntry, len(plan.Entries))
	copy(entries, plan.Entries)

	summary := domain.MergeSummary{Groups: plan.Groups, Invalid: plan.Invalid}
	ownerFFL := domain.NormalizeFFL(p.ownerFFL)

	for i := range entries {
		if err := ctx.Err(); err != nil {
			return entries, summary, err
		}
		entry := &entries[i]

		if ownerFFL != "" && domain.NormalizeFFL(entry.WinnerFFL) == ownerFFL {
			entry.Status = domain.MergeSkipped
			entry.Reason = "Account Owner Contact"
			summary.Skipped++
			continue
		}
		if dryRun {
			entry.Status = domain.MergeWhatIf
			summary.WhatIf++
			continue
		}

		if err := p.api.MergeContacts(ctx, entry.WinnerID, entry.LoserID); err != nil {
			entry.Status = domain.MergeFailed
			entry.Reason = err.Error()
			summary.Failed++
			p.logger.Error("merge failed",
				zap.String("rds", entry.RDS),
				zap.String("winner_id", entry.WinnerID),
				zap.String("loser_id", entry.LoserID),
				zap.Error(err),
			)
			continue
		}
		entry.Status = domain.MergeSuccess
		summary.Merged++
		p.logger.Info("merged duplicate licensee contact",
			zap.String("rds", entry.RDS),
			zap.String("winner_id", entry.WinnerID),
			zap.String("loser_id", entry.LoserID),
		)
	}
	return entries, summary, nil
}
