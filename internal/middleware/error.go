package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/snapdish/snapdish-backend/internal/types"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// ErrorHandler translates errors attached via c.Error into JSON
// responses with a status matching the error's class
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		log.Printf("[ErrorHandler] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)

		status, resp := classify(err)
		c.JSON(status, resp)
	}
}

func classify(err error) (int, ErrorResponse) {
	var validationErr *types.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, ErrorResponse{Error: validationErr.Message}
	}

	var networkErr *types.NetworkError
	if errors.As(err, &networkErr) {
		status := http.StatusBadGateway
		switch networkErr.Kind {
		case types.NetworkRateLimited:
			status = http.StatusTooManyRequests
		case types.NetworkTimeout:
			status = http.StatusGatewayTimeout
		case types.NetworkAuthFailure:
			status = http.StatusBadGateway
		case types.NetworkNoConnection:
			status = http.StatusServiceUnavailable
		}
		return status, ErrorResponse{Error: networkErr.Error(), Kind: string(networkErr.Kind), Retryable: networkErr.Retryable()}
	}

	var processingErr *types.ProcessingError
	if errors.As(err, &processingErr) {
		status := http.StatusUnprocessableEntity
		if processingErr.Kind == types.ProcessingServiceFailure {
			status = http.StatusBadGateway
		}
		return status, ErrorResponse{Error: processingErr.Error(), Kind: string(processingErr.Kind)}
	}

	if errors.Is(err, types.ErrDisposed) {
		return http.StatusServiceUnavailable, ErrorResponse{Error: "service is shutting down"}
	}

	return http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"}
}
