package errors

import (
	"fmt"
	"net/http"
)

// Ingestion error codes. Backend logs are always in English; clients key off Code.
const (
	CodeEmptyIDs          = "EMPTY_IDS"
	CodeInvalidPriority   = "INVALID_PRIORITY"
	CodeIngestionNotFound = "INGESTION_NOT_FOUND"
)

// Scheduler error codes. These never reach HTTP callers in normal operation.
const (
	CodeInvalidTransition = "INVALID_STATUS_TRANSITION"
	CodeProcessingFailed  = "BATCH_PROCESSING_FAILED"
)

// Validation error codes.
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeInternal         = "INTERNAL_ERROR"
)

// Convenience constructors using predefined codes.

// EmptyIDs creates the error returned for a submission without ids.
func EmptyIDs() *AppError {
	return Wrap(ErrEmptyIDs, CodeEmptyIDs, "IDs list cannot be empty", http.StatusBadRequest)
}

// InvalidPriorityf creates the error returned for an unrecognized priority.
func InvalidPriorityf(priority string) *AppError {
	return Wrap(ErrInvalidPriority, CodeInvalidPriority,
		"priority must be one of HIGH, MEDIUM, LOW", http.StatusBadRequest).
		WithParams(map[string]interface{}{"priority": priority})
}

// IngestionNotFoundf creates the error returned for an unknown ingestion id.
func IngestionNotFoundf(ingestionID string) *AppError {
	return Wrap(ErrIngestionNotFound, CodeIngestionNotFound,
		"Ingestion ID not found", http.StatusNotFound).
		WithParams(map[string]interface{}{"ingestion_id": ingestionID})
}

// InvalidTransitionf creates the error returned when a batch status would move
// backwards or skip a stage.
func InvalidTransitionf(batchID, from, to string) *AppError {
	return Wrap(ErrInvalidTransition, CodeInvalidTransition,
		fmt.Sprintf("batch %s cannot move from %s to %s", batchID, from, to),
		http.StatusInternalServerError).
		WithParams(map[string]interface{}{"batch_id": batchID, "from": from, "to": to})
}

// ProcessingFailedf wraps the last error of a batch whose processing was abandoned.
func ProcessingFailedf(batchID string, cause error) *AppError {
	return &AppError{
		Code:       CodeProcessingFailed,
		Message:    "batch processing failed",
		HTTPStatus: http.StatusInternalServerError,
		Params:     map[string]interface{}{"batch_id": batchID},
		Err:        fmt.Errorf("%w: %w", ErrProcessingFailed, cause),
	}
}

// ValidationFailed creates a bad request error carrying field-level details.
func ValidationFailed(fieldErrors []FieldError) *AppError {
	return BadRequest(CodeValidationFailed, "request validation failed").
		WithFieldErrors(fieldErrors)
}
