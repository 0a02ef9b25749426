package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/username-escrow/backend/internal/config"
	"github.com/username-escrow/backend/internal/escrow"
	"github.com/username-escrow/backend/internal/http/dto"
	"github.com/username-escrow/backend/internal/middleware"
	"github.com/username-escrow/backend/internal/registry"
	"github.com/username-escrow/backend/internal/ton"
	"go.uber.org/zap"
)

type UserHandler struct {
	registry *registry.Registry
	escrow   *escrow.Escrow
	cfg      *config.Config
	log      *zap.Logger
}

func NewUserHandler(reg *registry.Registry, esc *escrow.Escrow, cfg *config.Config, log *zap.Logger) *UserHandler {
	return &UserHandler{registry: reg, escrow: esc, cfg: cfg, log: log}
}

// Register binds a username to the caller's wallet.
// POST /users
func (h *UserHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	profile, err := h.registry.Register(c.UserContext(), middleware.GetAddress(c), req.Username)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: profile})
}

// GET /users/:username
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	profile, err := h.registry.Profile(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	if profile == nil {
		return notFound(c, "user not found")
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: profile})
}

// GET /users/:username/available
func (h *UserHandler) CheckUsername(c *fiber.Ctx) error {
	username := c.Params("username")
	available, err := h.registry.CheckUsername(c.UserContext(), username)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.AvailabilityResponse{
		Username:  username,
		Available: available,
	}})
}

// GetUsernameByAddress принимает raw или friendly адрес.
// GET /addresses/:address/username
func (h *UserHandler) GetUsernameByAddress(c *fiber.Ctx) error {
	addr, err := ton.NormalizeAddress(c.Params("address"))
	if err != nil {
		return badRequest(c, "invalid TON address")
	}

	username, found, err := h.registry.UsernameByAddress(c.UserContext(), addr)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if !found {
		return notFound(c, "no username registered for address")
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.MeResponse{Address: addr, Username: username}})
}

// GET /me
func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	addr := middleware.GetAddress(c)
	username, _, err := h.registry.UsernameByAddress(c.UserContext(), addr)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.MeResponse{Address: addr, Username: username}})
}

// GetBalances returns the caller's ledger balance for every supported token.
// GET /me/balances
func (h *UserHandler) GetBalances(c *fiber.Ctx) error {
	addr := middleware.GetAddress(c)

	balances := make([]dto.BalanceResponse, 0, len(h.cfg.SupportedTokens))
	for _, token := range h.cfg.SupportedTokens {
		amount, err := h.escrow.Balance(c.UserContext(), addr, token)
		if err != nil {
			return respondError(c, h.log, err)
		}
		b := dto.BalanceResponse{Token: token, Amount: amount}
		if token == dto.TokenTON {
			b.AmountTON = ton.FormatNano(amount)
		}
		balances = append(balances, b)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: balances})
}
