package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrRateLimited indicates the API rate limit was exceeded
	ErrRateLimited = errors.New("rate limited")
	// ErrQuotaExceeded indicates the API quota was exceeded
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrNoChoices is returned when a completion has no choices
	ErrNoChoices = errors.New("no choices in response")
)

// APIError represents an error from the AI provider API
type APIError struct {
	Message    string
	Type       string
	Code       string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
}

// Unwrap maps throttling responses onto the package sentinels
func (e *APIError) Unwrap() error {
	switch {
	case e.Code == "insufficient_quota":
		return ErrQuotaExceeded
	case e.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return nil
	}
}

// IsRateLimitError reports a temporary throttling error
func IsRateLimitError(err error) bool {
	return err != nil && errors.Is(err, ErrRateLimited)
}

// IsQuotaError reports an exhausted account quota
func IsQuotaError(err error) bool {
	return err != nil && errors.Is(err, ErrQuotaExceeded)
}

// ExtractAPIError recovers status and error details from an SDK error.
// It returns nil for errors that are not throttling responses.
func ExtractAPIError(err error) *APIError {
	if err == nil {
		return nil
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "429") {
		return nil
	}

	apiErr := &APIError{
		StatusCode: http.StatusTooManyRequests,
		Message:    errStr,
		Type:       "rate_limit_error",
	}

	// SDK errors embed the JSON body of the response
	start := strings.Index(errStr, "{")
	end := strings.LastIndex(errStr, "}")
	if start == -1 || end <= start {
		return apiErr
	}

	var body struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
		Error   *struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if json.Unmarshal([]byte(errStr[start:end+1]), &body) != nil {
		return apiErr
	}
	if body.Error != nil {
		body.Message, body.Type, body.Code = body.Error.Message, body.Error.Type, body.Error.Code
	}
	if body.Message != "" {
		apiErr.Message = body.Message
	}
	if body.Type != "" {
		apiErr.Type = body.Type
	}
	apiErr.Code = body.Code
	return apiErr
}
