// Package receipt records acknowledged submissions per session.
package receipt

import (
	"context"
	"time"

	"shipform/internal/address"
)

// Receipt is one accepted submission.
type Receipt struct {
	SessionID   string          `json:"session_id"`
	Payload     address.Payload `json:"payload"`
	Tier        address.Tier    `json:"tier"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// Store keeps receipts in submission order.
type Store interface {
	Append(ctx context.Context, r Receipt) error
	List(ctx context.Context, sessionID string) ([]Receipt, error)
	Delete(ctx context.Context, sessionID string) error
}
