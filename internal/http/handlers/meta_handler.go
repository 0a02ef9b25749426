package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/username-escrow/backend/internal/config"
	"github.com/username-escrow/backend/internal/http/dto"
	"github.com/username-escrow/backend/internal/models"
)

type MetaHandler struct {
	cfg *config.Config
}

func NewMetaHandler(cfg *config.Config) *MetaHandler {
	return &MetaHandler{cfg: cfg}
}

type MetaTokens struct {
	Tokens           []string `json:"tokens"`
	DepositAddress   string   `json:"deposit_address,omitempty"` // TON hot wallet
	MaxMessageLength int      `json:"max_message_length"`
}

// GET /meta/tokens
func (h *MetaHandler) GetTokens(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: MetaTokens{
		Tokens:           h.cfg.SupportedTokens,
		DepositAddress:   h.cfg.TONHotWalletAddress,
		MaxMessageLength: models.MaxMessageLength,
	}})
}
