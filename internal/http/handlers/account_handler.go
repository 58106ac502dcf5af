package handlers

import (
	"github.com/escrow-marketplace/backend/internal/http/dto"
	"github.com/escrow-marketplace/backend/internal/middleware"
	"github.com/escrow-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AccountHandler struct {
	accounts *services.AccountService
	log      *zap.Logger
}

func NewAccountHandler(accounts *services.AccountService, log *zap.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, log: log}
}

// Credit tops up an address's internal balance. Admin-only.
// POST /accounts/credit
func (h *AccountHandler) Credit(c *fiber.Ctx) error {
	var req dto.CreditRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Address == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "address is required"})
	}

	caller := middleware.GetAddress(c)
	if err := h.accounts.Credit(c.Context(), caller, req.Address, req.Symbol, req.Amount); err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// Approve sets the caller's allowance towards the escrow account.
// POST /me/allowance
func (h *AccountHandler) Approve(c *fiber.Ctx) error {
	var req dto.ApproveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	caller := middleware.GetAddress(c)
	if err := h.accounts.Approve(c.Context(), caller, req.Symbol, req.Amount); err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// GET /me/balance?symbol=TON — one symbol, or all balances when omitted.
func (h *AccountHandler) Balance(c *fiber.Ctx) error {
	caller := middleware.GetAddress(c)

	symbol := c.Query("symbol")
	if symbol == "" {
		accounts, err := h.accounts.Balances(c.Context(), caller)
		if err != nil {
			h.log.Error("balances lookup failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
		}
		return c.JSON(dto.SuccessResponse{OK: true, Data: accounts})
	}

	balance, err := h.accounts.Balance(c.Context(), caller, symbol)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.BalanceResponse{
		Address: caller,
		Symbol:  symbol,
		Balance: balance,
	}})
}

// GET /me/allowance?symbol=USDT
func (h *AccountHandler) Allowance(c *fiber.Ctx) error {
	caller := middleware.GetAddress(c)
	symbol := c.Query("symbol")
	if symbol == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "symbol is required"})
	}

	allowance, err := h.accounts.Allowance(c.Context(), caller, symbol)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.AllowanceResponse{
		OwnerAddress: caller,
		Symbol:       symbol,
		Amount:       allowance,
	}})
}
