package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Brownie44l1/xray-api/internal/model"
)

var (
	ErrMissingImage    = errors.New("no image file provided")
	ErrImageTooLarge   = errors.New("image exceeds upload limit")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrInvalidRequest  = errors.New("invalid request body")
)

type ErrorResponse struct {
	StatusCode int
	Code       string
	Message    string
}

// MapClassifyError maps upload and classification errors to HTTP responses.
func MapClassifyError(err error) ErrorResponse {
	switch {
	case errors.Is(err, ErrMissingImage):
		return ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Code:       "MISSING_IMAGE",
			Message:    "no image file provided, use 'image' as the form field name",
		}
	case errors.Is(err, ErrInvalidRequest):
		return ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Code:       "INVALID_REQUEST",
			Message:    `invalid JSON, expected {"tensor": [...]}`,
		}
	case errors.Is(err, ErrImageTooLarge):
		return ErrorResponse{
			StatusCode: http.StatusRequestEntityTooLarge,
			Code:       "IMAGE_TOO_LARGE",
			Message:    "image is too large",
		}
	case errors.Is(err, ErrUnsupportedType), errors.Is(err, model.ErrDecode):
		return ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Code:       "INVALID_IMAGE",
			Message:    "invalid image, supported: JPEG, PNG",
		}
	case errors.Is(err, model.ErrShape):
		return ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Code:       "INVALID_TENSOR",
			Message:    "input does not match the model shape",
		}
	case errors.Is(err, model.ErrLabelMismatch), errors.Is(err, model.ErrEmptyOutput):
		return ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Code:       "MODEL_MISCONFIGURED",
			Message:    "model output does not match its labels",
		}
	case errors.Is(err, model.ErrInference):
		return ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Code:       "INFERENCE_FAILED",
			Message:    "prediction failed",
		}
	default:
		return ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Code:       "INTERNAL_ERROR",
			Message:    "internal server error",
		}
	}
}

func HandleClassifyError(c *gin.Context, err error) {
	errResp := MapClassifyError(err)
	respondError(c, errResp.StatusCode, errResp.Code, errResp.Message)
}
