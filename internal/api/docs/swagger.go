package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// ImageRequest carries a base64 encoded image
type ImageRequest struct {
	Image string `json:"image" example:"/9j/4AAQSkZJRgABAQ..."`
}

// VerifyRequest pairs an image with a reference encoding
type VerifyRequest struct {
	Image    string `json:"image" example:"/9j/4AAQSkZJRgABAQ..."`
	Encoding string `json:"encoding" example:"AAAAwJ3Ywr8AAABAPn2zPw..."`
}

// EnrollRequest enrolls one sample from an image or an encoding
type EnrollRequest struct {
	Label    string `json:"label" example:"alice"`
	Image    string `json:"image,omitempty" example:"/9j/4AAQSkZJRgABAQ..."`
	Encoding string `json:"encoding,omitempty" example:""`
}

// EncodeResponse represents the response for a successful encode
type EncodeResponse struct {
	Encoding string `json:"encoding" example:"AAAAwJ3Ywr8AAABAPn2zPw..."`
}

// VerifyResponse represents the response for face verification
type VerifyResponse struct {
	Same string `json:"same" example:"True"`
}

// EnrollResponse represents an enrolled sample
type EnrollResponse struct {
	ID    string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Label string `json:"label" example:"alice"`
}

// Identity summarizes one enrolled label
type Identity struct {
	Label   string `json:"label" example:"alice"`
	Samples int    `json:"samples" example:"12"`
}

// IdentitiesResponse lists enrolled labels
type IdentitiesResponse struct {
	Identities []Identity `json:"identities"`
}

// DeleteIdentityResponse reports removed samples
type DeleteIdentityResponse struct {
	Label   string `json:"label" example:"alice"`
	Removed int    `json:"removed" example:"12"`
}

// Box is a face region in pixels
type Box struct {
	Top    int `json:"top" example:"40"`
	Right  int `json:"right" example:"180"`
	Bottom int `json:"bottom" example:"200"`
	Left   int `json:"left" example:"20"`
}

// Prediction is the classification of one detected face
type Prediction struct {
	Label      string  `json:"label" example:"alice"`
	Distance   float64 `json:"distance" example:"0.34"`
	Recognized bool    `json:"recognized" example:"true"`
	Box        Box     `json:"box"`
}

// IdentifyResponse lists one prediction per detected face
type IdentifyResponse struct {
	Faces []Prediction `json:"faces"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Message string `json:"message" example:"Could not find any faces!"`
	Code    string `json:"code" example:"NO_FACE_FOUND"`
}

// HealthResponse represents the health check body
type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	Version  string `json:"version" example:"0.1.0"`
	Provider string `json:"provider" example:"deepface/Dlib"`
}

var (
	errInvalidBase64 = response.New(ErrorResponse{Code: "INVALID_BASE64", Message: "Invalid base64 data"}, "400", "Bad Request")
	errInvalidFormat = response.New(ErrorResponse{Code: "INVALID_FORMAT", Message: "Invalid data!"}, "400", "Bad Request")
	errInvalidImage  = response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Invalid image format or corrupted file"}, "422", "Unprocessable Entity")
	errNoFace        = response.New(ErrorResponse{Code: "NO_FACE_FOUND", Message: "Could not find any faces!"}, "422", "Unprocessable Entity")
	errRateLimit     = response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests")
	errInternal      = response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "Internal error!"}, "500", "Internal Server Error")
	errProvider      = response.New(ErrorResponse{Code: "PROVIDER_UNAVAILABLE", Message: "Face provider unavailable"}, "503", "Service Unavailable")
)

const statusNote = " Failures answer 200 unless ERROR_STATUS_MODE=http; the statuses below apply in http mode."

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "facegate API",
		Version:     "v1.0.0",
		Description: "Face encoding, verification and identification over HTTP",
		Host:        "localhost:3000",
		Path:        "/",
	})

	endpoints := []*endpoint.EndPoint{
		// POST /encode
		endpoint.New(
			endpoint.POST,
			"/encode",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Encode the first face in an image"),
			endpoint.WithDescription("Detects faces and returns the base64 float64 little-endian embedding of the first one."+statusNote),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(ImageRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EncodeResponse{}, "200", "Face encoded"),
			}),
			endpoint.WithErrors([]response.Response{
				errInvalidBase64, errInvalidFormat, errInvalidImage, errNoFace, errRateLimit, errInternal, errProvider,
			}),
		),

		// POST /verify
		endpoint.New(
			endpoint.POST,
			"/verify",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Verify a face against a reference encoding"),
			endpoint.WithDescription("Compares the first face in the image with the reference encoding; same is \"True\" when the Euclidean distance is within the threshold."+statusNote),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(VerifyRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(VerifyResponse{}, "200", "Verification completed"),
			}),
			endpoint.WithErrors([]response.Response{
				errInvalidBase64, errInvalidFormat, errInvalidImage, errNoFace, errRateLimit, errInternal, errProvider,
			}),
		),

		// POST /identities
		endpoint.New(
			endpoint.POST,
			"/identities",
			endpoint.WithTags("Gallery"),
			endpoint.WithSummary("Enroll a labelled sample"),
			endpoint.WithDescription("Adds one sample to the gallery from either an image with exactly one face or an encoding."+statusNote),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(EnrollRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EnrollResponse{}, "201", "Sample enrolled"),
			}),
			endpoint.WithErrors([]response.Response{
				errInvalidBase64, errInvalidFormat, errInvalidImage, errNoFace,
				response.New(ErrorResponse{Code: "MULTIPLE_FACES", Message: "Multiple faces detected, please provide image with single face"}, "422", "Unprocessable Entity"),
				errRateLimit, errInternal, errProvider,
			}),
		),

		// GET /identities
		endpoint.New(
			endpoint.GET,
			"/identities",
			endpoint.WithTags("Gallery"),
			endpoint.WithSummary("List enrolled identities"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(IdentitiesResponse{}, "200", "Identities listed"),
			}),
			endpoint.WithErrors([]response.Response{errRateLimit, errInternal}),
		),

		// DELETE /identities/:label
		endpoint.New(
			endpoint.DELETE,
			"/identities/{label}",
			endpoint.WithTags("Gallery"),
			endpoint.WithSummary("Delete every sample of a label"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("label", parameter.Path, parameter.WithDescription("Identity label")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(DeleteIdentityResponse{}, "200", "Identity deleted"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "IDENTITY_NOT_FOUND", Message: "Identity not found"}, "404", "Not Found"),
				errRateLimit, errInternal,
			}),
		),

		// POST /identify
		endpoint.New(
			endpoint.POST,
			"/identify",
			endpoint.WithTags("Gallery"),
			endpoint.WithSummary("Identify every face in an image"),
			endpoint.WithDescription("Classifies each detected face with a distance-weighted k-NN vote over the gallery. Faces beyond the recognition threshold are labelled N/A."+statusNote),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(ImageRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(IdentifyResponse{}, "200", "Faces identified"),
			}),
			endpoint.WithErrors([]response.Response{
				errInvalidBase64, errInvalidFormat, errInvalidImage, errNoFace,
				response.New(ErrorResponse{Code: "GALLERY_EMPTY", Message: "No identities enrolled"}, "422", "Unprocessable Entity"),
				errRateLimit, errInternal, errProvider,
			}),
		),

		// GET /health
		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Service is up"),
			}),
		),

		// GET /ready
		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Readiness probe"),
			endpoint.WithDescription("Pings the gallery store"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{Status: "ready"}, "200", "Ready to serve"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
