package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"prizewheel/service"
)

// Error codes returned in the "code" field of error bodies
const (
	ErrCodeBadRequest     = "BAD_REQUEST"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeConflict       = "CONFLICT"
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeUnavailable    = "STORAGE_UNAVAILABLE"
	ErrCodeInternalServer = "INTERNAL_SERVER_ERROR"
)

// APIError is an error with an HTTP status and a machine-readable code
type APIError struct {
	Status  int               `json:"-"`
	Code    string            `json:"code"`
	Message string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// BadRequest creates a 400 error
func BadRequest(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: ErrCodeBadRequest, Message: message}
}

// NotFound creates a 404 error
func NotFound(message string) *APIError {
	return &APIError{Status: http.StatusNotFound, Code: ErrCodeNotFound, Message: message}
}

// Conflict creates a 409 error
func Conflict(message string) *APIError {
	return &APIError{Status: http.StatusConflict, Code: ErrCodeConflict, Message: message}
}

// InternalError creates a 500 error and logs the cause
func InternalError(err error) *APIError {
	log.WithError(err).Error("Internal error")
	return &APIError{Status: http.StatusInternalServerError, Code: ErrCodeInternalServer, Message: "Internal server error"}
}

// ToAPIError maps service errors onto HTTP statuses
func ToAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var fieldErrs service.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return &APIError{
			Status:  http.StatusUnprocessableEntity,
			Code:    ErrCodeValidation,
			Message: "Validation failed",
			Fields:  fieldErrs.Fields(),
		}
	}
	var fieldErr *service.ValidationError
	if errors.As(err, &fieldErr) {
		return &APIError{
			Status:  http.StatusUnprocessableEntity,
			Code:    ErrCodeValidation,
			Message: "Validation failed",
			Fields:  map[string]string{fieldErr.Field: fieldErr.Message},
		}
	}

	switch {
	case errors.Is(err, service.ErrParticipantNotFound):
		return NotFound("Participant not found")
	case errors.Is(err, service.ErrSessionNotFound):
		return NotFound("Session not found")
	case errors.Is(err, service.ErrSpinInProgress), errors.Is(err, service.ErrSpinDisabled):
		return Conflict(err.Error())
	}

	var storageErr *service.StorageError
	if errors.As(err, &storageErr) {
		log.WithFields(log.Fields{
			"op":      storageErr.Op,
			"unknown": storageErr.Unknown,
			"error":   storageErr.Err,
		}).Warn("Storage unavailable")
		return &APIError{
			Status:  http.StatusServiceUnavailable,
			Code:    ErrCodeUnavailable,
			Message: "Storage is temporarily unavailable, please retry",
		}
	}

	return InternalError(err)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.WithError(err).Warn("Failed to encode response")
		}
	}
}

func respondOK(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusOK, data)
}

func respondCreated(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusCreated, data)
}

func respondError(w http.ResponseWriter, err error) {
	apiErr := ToAPIError(err)
	respondJSON(w, apiErr.Status, apiErr)
}

// decodeJSON decodes the request body into target
func decodeJSON(r *http.Request, target interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return BadRequest("Request body is empty")
		}
		return BadRequest("Invalid JSON: " + err.Error())
	}
	return nil
}
