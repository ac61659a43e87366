package handler

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facegate/internal/api/response"
	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// FaceService interface for the service
type FaceService interface {
	Encode(ctx context.Context, imageB64 string) (string, error)
	Verify(ctx context.Context, imageB64, encodingB64 string) (domain.MatchResult, error)
}

// FaceHandler handles the encode and verify endpoints
type FaceHandler struct {
	service FaceService
	policy  response.Policy
	logger  *slog.Logger
}

// NewFaceHandler creates a new FaceHandler instance
func NewFaceHandler(service FaceService, policy response.Policy, logger *slog.Logger) *FaceHandler {
	return &FaceHandler{
		service: service,
		policy:  policy,
		logger:  logger,
	}
}

// EncodeRequest body for encode endpoint
type EncodeRequest struct {
	Image string `json:"image"`
}

// VerifyRequest body for verify endpoint
type VerifyRequest struct {
	Image    string `json:"image"`
	Encoding string `json:"encoding"`
}

// Encode POST /encode - embedding of the first face in the image
func (h *FaceHandler) Encode(c *fiber.Ctx) error {
	var req EncodeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	encoding, err := h.service.Encode(c.UserContext(), req.Image)
	if err != nil {
		return err
	}

	return h.policy.Success(c, fiber.StatusOK, fiber.Map{"encoding": encoding}, "Encoded a face!")
}

// Verify POST /verify - compare the first face against a reference encoding
func (h *FaceHandler) Verify(c *fiber.Ctx) error {
	var req VerifyRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	result, err := h.service.Verify(c.UserContext(), req.Image, req.Encoding)
	if err != nil {
		return err
	}

	h.logger.Debug("verified face",
		slog.Bool("same", result.Same),
		slog.Float64("distance", result.Distance),
	)

	return h.policy.Success(c, fiber.StatusOK, fiber.Map{"same": pythonBool(result.Same)}, "Verified!")
}

// pythonBool renders the match flag the way existing clients parse it.
func pythonBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// parseBody decodes a JSON body; anything unparsable is a format error.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if len(c.Body()) == 0 {
		return domain.ErrFormat
	}
	if err := c.BodyParser(out); err != nil {
		return domain.ErrFormat.WithError(err)
	}
	return nil
}
