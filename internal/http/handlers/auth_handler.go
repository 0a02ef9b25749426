package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/username-escrow/backend/internal/http/dto"
	"github.com/username-escrow/backend/internal/services"
	"go.uber.org/zap"
)

type AuthHandler struct {
	sessions *services.SessionService
	log      *zap.Logger
}

func NewAuthHandler(sessions *services.SessionService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, log: log}
}

// ProofPayload создаёт nonce для TON Proof.
// POST /auth/ton-proof/payload
func (h *AuthHandler) ProofPayload(c *fiber.Ctx) error {
	payload, err := h.sessions.GeneratePayload(c.UserContext())
	if err != nil {
		h.log.Error("failed to generate proof payload", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(fiber.Map{"payload": payload})
}

// TonProofLogin проверяет TON Proof и выдаёт JWT на адрес кошелька.
// POST /auth/ton-proof
func (h *AuthHandler) TonProofLogin(c *fiber.Ctx) error {
	var req dto.TonProofLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Address == "" || req.PublicKey == "" || req.Proof.Signature == "" {
		return badRequest(c, "address, public_key, and proof.signature are required")
	}

	session, err := h.sessions.Login(c.UserContext(), services.LoginRequest{
		Address:   req.Address,
		Network:   req.Network,
		PublicKey: req.PublicKey,
		StateInit: req.StateInit,
		Proof:     req.Proof,
	})
	if err != nil {
		h.log.Debug("ton proof login rejected", zap.String("address", req.Address), zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(dto.AuthResponse{Token: session.Token, Address: session.Address})
}
