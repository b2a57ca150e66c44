package model

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Error codes
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeInvalidID   = "INVALID_GAME_ID"
	CodeNotFound    = "GAME_NOT_FOUND"
	CodePersistence = "PERSISTENCE_ERROR"
)

// GameError định nghĩa base error cho game domain
type GameError struct {
	Code    string            // Error code duy nhất (VD: "GAME_NOT_FOUND")
	Message string            // Human-readable message, an toàn để trả về client
	Details map[string]string // Per-field messages cho validation errors
	Err     error             // Underlying error, không bao giờ trả về client
}

// Error implements error interface
func (e *GameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap allows error wrapping compatibility
func (e *GameError) Unwrap() error {
	return e.Err
}

// ============================================
// ERROR FACTORY FUNCTIONS
// ============================================

// NewGameNotFound tạo error "game not found"
func NewGameNotFound() *GameError {
	return &GameError{
		Code:    CodeNotFound,
		Message: "Game not found",
	}
}

// NewInvalidGameID tạo error "invalid game ID"
func NewInvalidGameID(id string) *GameError {
	return &GameError{
		Code:    CodeInvalidID,
		Message: "Invalid game ID",
		Details: map[string]string{"id": fmt.Sprintf("%q is not a valid identifier", id)},
	}
}

// NewValidationError gom per-field messages.
// Message liệt kê các field lỗi theo thứ tự alphabet, vd "Validation failed: rating, title".
func NewValidationError(details map[string]string) *GameError {
	fields := make([]string, 0, len(details))
	for field := range details {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	message := "Validation failed"
	if len(fields) > 0 {
		message += ": " + strings.Join(fields, ", ")
	}

	return &GameError{
		Code:    CodeValidation,
		Message: message,
		Details: details,
	}
}

// NewPersistenceError wrap lỗi từ database driver
func NewPersistenceError(op string, err error) *GameError {
	return &GameError{
		Code:    CodePersistence,
		Message: fmt.Sprintf("Failed to %s game", op),
		Err:     err,
	}
}

// ============================================
// ERROR CHECKING FUNCTIONS
// ============================================

func hasCode(err error, code string) bool {
	var gameErr *GameError
	return errors.As(err, &gameErr) && gameErr.Code == code
}

func IsGameNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

func IsInvalidGameID(err error) bool {
	return hasCode(err, CodeInvalidID)
}

func IsValidationError(err error) bool {
	return hasCode(err, CodeValidation)
}

func IsPersistenceError(err error) bool {
	return hasCode(err, CodePersistence)
}

// GetErrorDetails lấy per-field details nếu có
func GetErrorDetails(err error) map[string]string {
	var gameErr *GameError
	if errors.As(err, &gameErr) {
		return gameErr.Details
	}
	return nil
}

// MapErrorToHTTP chuyển error sang (status, message, code).
// Persistence và unknown errors luôn trả message chung, không lộ chi tiết.
func MapErrorToHTTP(err error) (int, string, string) {
	var gameErr *GameError
	if !errors.As(err, &gameErr) {
		return http.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR"
	}

	switch gameErr.Code {
	case CodeNotFound:
		return http.StatusNotFound, gameErr.Message, gameErr.Code
	case CodeValidation, CodeInvalidID:
		return http.StatusBadRequest, gameErr.Message, gameErr.Code
	default:
		return http.StatusInternalServerError, "Internal server error", gameErr.Code
	}
}
