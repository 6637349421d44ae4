package model

import "time"

// DraftSource tells where the upstream draft of a record came from
type DraftSource string

const (
	DraftSourceNone  DraftSource = "none"  // rules only
	DraftSourceInput DraftSource = "input" // supplied by the caller
	DraftSourceLLM   DraftSource = "llm"   // generated by the provider
	DraftSourceCache DraftSource = "cache" // provider draft served from cache
)

// Record is a finalized incident as persisted: the record itself plus the
// context it was classified from
type Record struct {
	ID          string      `json:"id"`
	CreatedAt   time.Time   `json:"created_at"`
	Transcript  string      `json:"transcript"`
	DraftSource DraftSource `json:"draft_source"`
	Provider    string      `json:"provider,omitempty"`
	Incident    Incident    `json:"record"`
}
