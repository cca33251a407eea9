package ai

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/benvon/project-assistant/internal/logger"
)

// MaxPreviewLength is the maximum length for preview strings in logs
const MaxPreviewLength = 200

// SanitizePrompt creates a safe preview of a prompt for logging
func SanitizePrompt(prompt string, fullLog bool) string {
	if fullLog {
		return logger.SanitizeDebugContent(prompt)
	}
	return logger.SanitizeString(prompt, MaxPreviewLength)
}

// SanitizeResponse creates a safe preview of a response for logging
func SanitizeResponse(response string, fullLog bool) string {
	return SanitizePrompt(response, fullLog)
}

// HashOwner returns a short stable hash of an owner email so logs do not carry addresses
func HashOwner(owner string) string {
	if owner == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(owner))
	return hex.EncodeToString(hash[:])[:16]
}
