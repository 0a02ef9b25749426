package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/username-escrow/backend/internal/escrow"
	"github.com/username-escrow/backend/internal/http/dto"
	"github.com/username-escrow/backend/internal/middleware"
	"github.com/username-escrow/backend/internal/ton"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	escrow *escrow.Escrow
	log    *zap.Logger
}

func NewPaymentHandler(esc *escrow.Escrow, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{escrow: esc, log: log}
}

// CreatePayment locks funds for a username.
// POST /payments
func (h *PaymentHandler) CreatePayment(c *fiber.Ctx) error {
	var req dto.CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	token := strings.ToUpper(strings.TrimSpace(req.Token))
	if token == "" {
		token = dto.TokenTON
	}

	// amount_ton удобнее для TON, amount подходит для любого токена
	amount := req.Amount
	if req.AmountTON != "" {
		if token != dto.TokenTON {
			return badRequest(c, "amount_ton is only accepted for TON payments")
		}
		if req.Amount != 0 {
			return badRequest(c, "specify either amount or amount_ton, not both")
		}
		nano, err := ton.ParseTON(req.AmountTON)
		if err != nil {
			return badRequest(c, err.Error())
		}
		amount = nano
	}

	id, err := h.escrow.CreatePayment(c.UserContext(), escrow.CreatePaymentInput{
		Sender:            middleware.GetAddress(c),
		RecipientUsername: req.RecipientUsername,
		Token:             token,
		Amount:            amount,
		Message:           req.Message,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: dto.CreatePaymentResponse{PaymentID: id}})
}

// GET /payments/:id
func (h *PaymentHandler) GetPayment(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid payment id")
	}

	payment, err := h.escrow.Payment(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if payment == nil {
		return notFound(c, "payment not found")
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.NewPaymentResponse(payment)})
}

// ClaimPayment is idempotent: a missing or already claimed payment answers
// 200 with disbursed=false.
// POST /payments/:id/claim
func (h *PaymentHandler) ClaimPayment(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid payment id")
	}

	disbursed, err := h.escrow.ClaimPayment(c.UserContext(), middleware.GetAddress(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.ClaimResponse{PaymentID: id, Disbursed: disbursed}})
}

// ListUserPayments returns ids in creation order, or full records with
// ?expand=true.
// GET /users/:username/payments
func (h *PaymentHandler) ListUserPayments(c *fiber.Ctx) error {
	username := c.Params("username")

	if c.QueryBool("expand") {
		payments, err := h.escrow.PaymentsFor(c.UserContext(), username)
		if err != nil {
			return respondError(c, h.log, err)
		}
		resp := make([]dto.PaymentResponse, 0, len(payments))
		for i := range payments {
			resp = append(resp, dto.NewPaymentResponse(&payments[i]))
		}
		return c.JSON(dto.SuccessResponse{OK: true, Data: resp})
	}

	ids, err := h.escrow.UserPayments(c.UserContext(), username)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: ids})
}
