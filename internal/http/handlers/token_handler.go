package handlers

import (
	"github.com/escrow-marketplace/backend/internal/http/dto"
	"github.com/escrow-marketplace/backend/internal/middleware"
	"github.com/escrow-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// TokenHandler covers the admin registry surface: settlement tokens and
// role grants.
type TokenHandler struct {
	registry *services.RegistryService
	log      *zap.Logger
}

func NewTokenHandler(registry *services.RegistryService, log *zap.Logger) *TokenHandler {
	return &TokenHandler{registry: registry, log: log}
}

// AddToken registers a settlement token. Admin-only (enforced in the service).
// POST /tokens
func (h *TokenHandler) AddToken(c *fiber.Ctx) error {
	var req dto.AddTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	caller := middleware.GetAddress(c)
	token, err := h.registry.AddToken(c.Context(), caller, req.Symbol, req.AssetHandle, req.PriceFeedRef, req.Decimals)
	if err != nil {
		return domainError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: token})
}

// GET /tokens
func (h *TokenHandler) ListTokens(c *fiber.Ctx) error {
	tokens, err := h.registry.ListTokens(c.Context())
	if err != nil {
		h.log.Error("list tokens failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: tokens})
}

// GrantRole assigns admin or lawyer to an address. Admin-only.
// POST /roles
func (h *TokenHandler) GrantRole(c *fiber.Ctx) error {
	var req dto.GrantRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Address == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "address is required"})
	}

	caller := middleware.GetAddress(c)
	if err := h.registry.GrantRole(c.Context(), caller, req.Address, req.Role); err != nil {
		return domainError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true})
}

// GET /roles/:address
func (h *TokenHandler) RolesOf(c *fiber.Ctx) error {
	roles, err := h.registry.RolesOf(c.Context(), c.Params("address"))
	if err != nil {
		h.log.Error("roles lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: roles})
}
