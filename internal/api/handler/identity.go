package handler

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facegate/internal/api/response"
	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// GalleryService is the part of the service backing the gallery endpoints.
type GalleryService interface {
	Enroll(ctx context.Context, label, imageB64, encodingB64 string) (*domain.Sample, error)
	Identify(ctx context.Context, imageB64 string) ([]domain.Prediction, error)
	ListIdentities(ctx context.Context) ([]domain.IdentitySummary, error)
	DeleteIdentity(ctx context.Context, label string) (int, error)
}

type IdentityHandler struct {
	service GalleryService
	policy  response.Policy
	logger  *slog.Logger
}

func NewIdentityHandler(service GalleryService, policy response.Policy, logger *slog.Logger) *IdentityHandler {
	return &IdentityHandler{
		service: service,
		policy:  policy,
		logger:  logger,
	}
}

// EnrollRequest carries either an image or a ready-made encoding.
type EnrollRequest struct {
	Label    string `json:"label"`
	Image    string `json:"image,omitempty"`
	Encoding string `json:"encoding,omitempty"`
}

// Enroll POST /identities
func (h *IdentityHandler) Enroll(c *fiber.Ctx) error {
	var req EnrollRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	sample, err := h.service.Enroll(c.UserContext(), req.Label, req.Image, req.Encoding)
	if err != nil {
		return err
	}

	h.logger.Info("identity enrolled",
		slog.String("label", sample.Label),
		slog.String("id", sample.ID.String()),
	)

	return h.policy.Success(c, fiber.StatusCreated, fiber.Map{
		"id":    sample.ID.String(),
		"label": sample.Label,
	}, "Enrolled!")
}

// List GET /identities
func (h *IdentityHandler) List(c *fiber.Ctx) error {
	identities, err := h.service.ListIdentities(c.UserContext())
	if err != nil {
		return err
	}
	if identities == nil {
		identities = []domain.IdentitySummary{}
	}

	return h.policy.Success(c, fiber.StatusOK, fiber.Map{"identities": identities}, "Listed identities!")
}

// Delete DELETE /identities/:label
func (h *IdentityHandler) Delete(c *fiber.Ctx) error {
	label := c.Params("label")

	removed, err := h.service.DeleteIdentity(c.UserContext(), label)
	if err != nil {
		return err
	}

	h.logger.Info("identity deleted",
		slog.String("label", label),
		slog.Int("samples", removed),
	)

	return h.policy.Success(c, fiber.StatusOK, fiber.Map{
		"label":   label,
		"removed": removed,
	}, "Deleted!")
}

// Identify POST /identify
func (h *IdentityHandler) Identify(c *fiber.Ctx) error {
	var req EncodeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	predictions, err := h.service.Identify(c.UserContext(), req.Image)
	if err != nil {
		return err
	}

	return h.policy.Success(c, fiber.StatusOK, fiber.Map{"faces": predictions}, "Identified!")
}
