package models

import (
	"time"
)

// MaxMessageLength: лимит длины memo в рунах.
const MaxMessageLength = 500

type Payment struct {
	ID                uint64     `json:"payment_id"`
	RecipientUsername string     `json:"recipient_username"`
	Sender            string     `json:"sender"`
	Token             string     `json:"token"`
	Amount            int64      `json:"amount"` // в минимальных единицах токена (nano для TON)
	Message           string     `json:"message"`
	CreatedAt         time.Time  `json:"created_at"`
	Claimed           bool       `json:"claimed"`
	ClaimedAt         *time.Time `json:"claimed_at,omitempty"`
	ClaimedBy         *string    `json:"claimed_by,omitempty"`
}

// IsClaimable reports whether the payment still holds funds in custody.
func (p *Payment) IsClaimable() bool {
	return p != nil && !p.Claimed
}
