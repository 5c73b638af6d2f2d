package models

import "github.com/vrsandeep/xmlup/internal/convert"

// RawItem is one submitted document. Name is its key within the batch.
type RawItem struct {
	Name string `json:"name"`
	Data []byte `json:"-"`
}

// ParsedRecord is the converted form of a RawItem.
type ParsedRecord struct {
	Name    string        `json:"name"`
	Kind    string        `json:"kind,omitempty"` // e.g. "esl", "sdat"
	Content convert.Value `json:"content"`
}

// ItemStatus is the transfer state of one item.
type ItemStatus string

const (
	StatusPending ItemStatus = "pending"
	StatusSuccess ItemStatus = "success"
	StatusError   ItemStatus = "error"
)

// Terminal reports whether the status can no longer change.
func (s ItemStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusError
}

// Aggregate is the batch-wide progress and remaining time.
type Aggregate struct {
	Progress int    `json:"progress"`
	ETA      string `json:"eta"`
}

// BatchSnapshot is a copy of the live batch state.
type BatchSnapshot struct {
	Generation uint64                `json:"generation"`
	Records    []ParsedRecord        `json:"records"`
	Status     map[string]ItemStatus `json:"status"`
	Progress   map[string]int        `json:"progress"`
	Errors     map[string]string     `json:"errors"`
	Aggregate  Aggregate             `json:"aggregate"`
}
