package models

import "time"

type ReclamationStatus string

const (
	ReclamationOpen       ReclamationStatus = "open"
	ReclamationInProgress ReclamationStatus = "in_progress"
	ReclamationResolved   ReclamationStatus = "resolved"
)

func (s ReclamationStatus) Valid() bool {
	switch s {
	case ReclamationOpen, ReclamationInProgress, ReclamationResolved:
		return true
	}
	return false
}

// Reclamation is a user-filed support ticket. Status changes and new
// messages are pushed to live subscribers over the ticket's channel.
type Reclamation struct {
	ID        int64             `json:"id"`
	AuthorID  int64             `json:"author_id"`
	Subject   string            `json:"subject"`
	Status    ReclamationStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

type ReclamationMessage struct {
	ID            int64     `json:"id"`
	ReclamationID int64     `json:"reclamation_id"`
	AuthorID      int64     `json:"author_id"`
	Body          string    `json:"body"`
	CreatedAt     time.Time `json:"created_at"`
}
