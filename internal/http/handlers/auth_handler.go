package handlers

import (
	"github.com/escrow-marketplace/backend/internal/auth"
	"github.com/escrow-marketplace/backend/internal/config"
	"github.com/escrow-marketplace/backend/internal/http/dto"
	"github.com/escrow-marketplace/backend/internal/repositories"
	"github.com/escrow-marketplace/backend/internal/ton"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthHandler issues JWTs to wallets that prove key ownership via
// TON Connect ton_proof. The flow is two-step: fetch a nonce, then submit
// the signed proof carrying it.
type AuthHandler struct {
	proofRepo *repositories.ProofRepo
	cfg       *config.Config
	log       *zap.Logger
}

func NewAuthHandler(proofRepo *repositories.ProofRepo, cfg *config.Config, log *zap.Logger) *AuthHandler {
	return &AuthHandler{proofRepo: proofRepo, cfg: cfg, log: log}
}

// GeneratePayload creates a single-use nonce the wallet must sign.
// POST /auth/proof-payload
func (h *AuthHandler) GeneratePayload(c *fiber.Ctx) error {
	p, err := h.proofRepo.Create(c.Context(), h.cfg.ProofPayloadTTL)
	if err != nil {
		h.log.Error("failed to create proof payload", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.ProofPayloadResponse{Payload: p.Payload})
}

// VerifyProof checks the signed ton_proof and issues a JWT bound to the
// wallet's raw address.
// POST /auth/verify
func (h *AuthHandler) VerifyProof(c *fiber.Ctx) error {
	var req dto.ProofVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Address == "" || req.PublicKey == "" || req.Proof.Signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "address, public_key, and proof.signature are required"})
	}

	// The nonce must be one we issued, unexpired and unused.
	if _, err := h.proofRepo.Consume(c.Context(), req.Proof.Payload); err != nil {
		h.log.Debug("proof payload rejected", zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "unknown or expired proof payload"})
	}

	workchain, addrHash, err := ton.ParseRawAddress(req.Address)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	err = ton.VerifyProof(req.PublicKey, addrHash, workchain, req.Proof, h.cfg.TONProofAllowedDomains, h.cfg.ProofMaxAge)
	if err != nil {
		h.log.Debug("ton proof verification failed", zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	token, err := auth.GenerateJWT(h.cfg.JWTSecret, req.Address, h.cfg.JWTExpiration)
	if err != nil {
		h.log.Error("failed to generate jwt", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(dto.AuthResponse{Token: token, Address: req.Address})
}
