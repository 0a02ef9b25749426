package dto

import "github.com/username-escrow/backend/internal/ton"

type TonProofLoginRequest struct {
	Address   string    `json:"address"`
	Network   string    `json:"network"`
	PublicKey string    `json:"public_key"`
	StateInit string    `json:"state_init,omitempty"` // base64 BOC из TON Connect account
	Proof     ton.Proof `json:"proof"`
}

type RegisterRequest struct {
	Username string `json:"username"`
}

type CreatePaymentRequest struct {
	RecipientUsername string `json:"recipient_username"`
	Token             string `json:"token,omitempty"`      // по умолчанию TON
	Amount            int64  `json:"amount,omitempty"`     // минимальные единицы
	AmountTON         string `json:"amount_ton,omitempty"` // "1.5", только для TON
	Message           string `json:"message,omitempty"`
}
