// Package response shapes every JSON body the API writes, so that success
// and failure payloads follow the configured schema and status policy.
package response

import (
	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facegate/internal/config"
	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// Policy selects the body schema (v1 or v2) and how failures map to HTTP
// status codes (legacy: always 200, http: the error's own status).
type Policy struct {
	Schema     string
	StatusMode string
}

func DefaultPolicy() Policy {
	return Policy{Schema: config.SchemaV1, StatusMode: config.StatusModeLegacy}
}

func PolicyFromConfig(cfg *config.Config) Policy {
	return Policy{Schema: cfg.ResponseSchema, StatusMode: cfg.ErrorStatusMode}
}

func (p Policy) v2() bool {
	return p.Schema == config.SchemaV2
}

func (p Policy) legacy() bool {
	return p.StatusMode != config.StatusModeHTTP
}

// Success writes body. Under v2 it also carries "success": true and message.
// status is only honoured in http mode; legacy mode always answers 200.
func (p Policy) Success(c *fiber.Ctx, status int, body fiber.Map, message string) error {
	if body == nil {
		body = fiber.Map{}
	}
	if p.v2() {
		body["success"] = true
		body["message"] = message
	}
	if p.legacy() {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(body)
}

// Failure writes {"message", "code"} for appErr.
func (p Policy) Failure(c *fiber.Ctx, appErr *domain.AppError) error {
	status := appErr.StatusCode
	if p.legacy() {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(p.failureBody(appErr.Code, appErr.Message))
}

// HTTPFailure writes a transport-level failure (unknown route, oversized
// body). These keep their status in every mode.
func (p Policy) HTTPFailure(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(p.failureBody("HTTP_ERROR", message))
}

func (p Policy) failureBody(code, message string) fiber.Map {
	body := fiber.Map{
		"message": message,
		"code":    code,
	}
	if p.v2() {
		body["success"] = false
	}
	return body
}
