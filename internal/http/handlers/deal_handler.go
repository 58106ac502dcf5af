package handlers

import (
	"strconv"

	"github.com/escrow-marketplace/backend/internal/http/dto"
	"github.com/escrow-marketplace/backend/internal/middleware"
	"github.com/escrow-marketplace/backend/internal/repositories"
	"github.com/escrow-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type DealHandler struct {
	escrow *services.EscrowService
	log    *zap.Logger
}

func NewDealHandler(escrow *services.EscrowService, log *zap.Logger) *DealHandler {
	return &DealHandler{escrow: escrow, log: log}
}

func parseDealID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

// CreateDeal opens a deal. Lawyer-only (enforced in the service).
// POST /deals
func (h *DealHandler) CreateDeal(c *fiber.Ctx) error {
	var req dto.CreateDealRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	caller := middleware.GetAddress(c)
	deal, err := h.escrow.CreateDeal(c.Context(), caller, req.SenderAddress, req.ReceiverAddress, req.PriceUSD, req.TokenSymbol, req.Deadline)
	if err != nil {
		return domainError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: deal})
}

// GET /deals/:id
func (h *DealHandler) GetDeal(c *fiber.Ctx) error {
	id, err := parseDealID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid deal id"})
	}

	deal, err := h.escrow.GetDeal(c.Context(), id)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: deal})
}

// GET /deals
func (h *DealHandler) ListDeals(c *fiber.Ctx) error {
	filter := repositories.DealFilter{
		Limit:  20,
		Offset: 0,
	}

	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}
	if v := c.Query("status"); v != "" {
		filter.Status = &v
	}
	if v := c.Query("sender"); v != "" {
		filter.SenderAddress = &v
	}
	if v := c.Query("receiver"); v != "" {
		filter.ReceiverAddress = &v
	}

	deals, err := h.escrow.ListDeals(c.Context(), filter)
	if err != nil {
		h.log.Error("list deals failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: deals})
}

// PayDeal settles a deal as the designated sender.
// POST /deals/:id/pay
func (h *DealHandler) PayDeal(c *fiber.Ctx) error {
	id, err := parseDealID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid deal id"})
	}

	var req dto.PayDealRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
		}
	}

	caller := middleware.GetAddress(c)
	if err := h.escrow.PayDeal(c.Context(), caller, id, req.AttachedAmount); err != nil {
		return domainError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}

// FinalizeDeal releases escrowed funds to the receiver. Lawyer-only.
// POST /deals/:id/finalize
func (h *DealHandler) FinalizeDeal(c *fiber.Ctx) error {
	id, err := parseDealID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid deal id"})
	}

	caller := middleware.GetAddress(c)
	if err := h.escrow.FinalizeDeal(c.Context(), caller, id); err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// CancelDeal voids an unpaid deal. Lawyer-only.
// POST /deals/:id/cancel
func (h *DealHandler) CancelDeal(c *fiber.Ctx) error {
	id, err := parseDealID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid deal id"})
	}

	caller := middleware.GetAddress(c)
	if err := h.escrow.CancelDeal(c.Context(), caller, id); err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// GetPaymentInfo quotes the asset amount a sender would owe right now.
// GET /deals/:id/payment
func (h *DealHandler) GetPaymentInfo(c *fiber.Ctx) error {
	id, err := parseDealID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid deal id"})
	}

	deal, required, err := h.escrow.QuotePayment(c.Context(), id)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.PaymentInfoResponse{
		DealID:         deal.ID,
		TokenSymbol:    deal.TokenSymbol,
		RequiredAmount: required,
		PriceUSD:       deal.PriceUSD,
		Status:         deal.Status,
	}})
}
