package dto

import (
	"time"

	"github.com/username-escrow/backend/internal/models"
	"github.com/username-escrow/backend/internal/ton"
)

const TokenTON = "TON"

type AuthResponse struct {
	Token   string `json:"token"`
	Address string `json:"address"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type MeResponse struct {
	Address  string `json:"address"`
	Username string `json:"username,omitempty"`
}

type AvailabilityResponse struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
}

type PaymentResponse struct {
	ID                uint64     `json:"payment_id"`
	RecipientUsername string     `json:"recipient_username"`
	Sender            string     `json:"sender"`
	Token             string     `json:"token"`
	Amount            int64      `json:"amount"`
	AmountTON         string     `json:"amount_ton,omitempty"`
	Message           string     `json:"message"`
	CreatedAt         time.Time  `json:"created_at"`
	Claimed           bool       `json:"claimed"`
	ClaimedAt         *time.Time `json:"claimed_at,omitempty"`
	ClaimedBy         *string    `json:"claimed_by,omitempty"`
}

func NewPaymentResponse(p *models.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:                p.ID,
		RecipientUsername: p.RecipientUsername,
		Sender:            p.Sender,
		Token:             p.Token,
		Amount:            p.Amount,
		Message:           p.Message,
		CreatedAt:         p.CreatedAt,
		Claimed:           p.Claimed,
		ClaimedAt:         p.ClaimedAt,
		ClaimedBy:         p.ClaimedBy,
	}
	if p.Token == TokenTON {
		resp.AmountTON = ton.FormatNano(p.Amount)
	}
	return resp
}

type CreatePaymentResponse struct {
	PaymentID uint64 `json:"payment_id"`
}

type ClaimResponse struct {
	PaymentID uint64 `json:"payment_id"`
	Disbursed bool   `json:"disbursed"`
}

type BalanceResponse struct {
	Token     string `json:"token"`
	Amount    int64  `json:"amount"`
	AmountTON string `json:"amount_ton,omitempty"`
}
