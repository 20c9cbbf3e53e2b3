package domain

import "time"

// MergeStatus is the lifecycle of one planned merge. Planned is the only
// non-terminal state.
type MergeStatus string

const (
	MergePlanned MergeStatus = "Planned"
	MergeSkipped MergeStatus = "Skipped"
	MergeSuccess MergeStatus = "Success"
	MergeFailed  MergeStatus = "Failed"
	MergeWhatIf  MergeStatus = "WhatIf" // dry-run: would have merged
)

// MergeCandidate is a contact considered for merging within one RDS group,
// paired with its parsed license expiration date.
type MergeCandidate struct {
	Contact Contact
	Expires time.Time
}

// MergeEntry is one planned merge: the loser's records fold into the
// winner. Reason is populated for Skipped and Failed entries.
type MergeEntry struct {
	RDS       string
	WinnerID  string
	WinnerFFL string
	LoserID   string
	LoserFFL  string
	Status    MergeStatus
	Reason    string
}

// MergeSummary aggregates the outcome of a merge run.
type MergeSummary struct {
	Groups  int // RDS groups with more than one contact
	Invalid int // contacts excluded because their FFL failed validation
	Merged  int
	Skipped int
	Failed  int
	WhatIf  int
}
