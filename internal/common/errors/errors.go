// Package errors provides the standardized error model shared by the HTTP API,
// the catalog loaders and the workflow worker.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeReferenceNotFound ErrorCode = "REFERENCE_NOT_FOUND"
	ErrCodeInvalidParameter  ErrorCode = "INVALID_PARAMETER"

	ErrCodeDataIntegrity       ErrorCode = "DATA_INTEGRITY"
	ErrCodeCatalogDecodeFailed ErrorCode = "CATALOG_DECODE_FAILED"
	ErrCodeCatalogUnavailable  ErrorCode = "CATALOG_UNAVAILABLE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches another *StandardError by code so callers can use errors.Is
// against a bare sentinel such as &StandardError{Code: ErrCodeReferenceNotFound}.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewReferenceNotFoundError reports an unknown product or country id.
// kind is "product" or "country".
func NewReferenceNotFoundError(kind, id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeReferenceNotFound,
		Message:   fmt.Sprintf("%s not found", kind),
		Details:   fmt.Sprintf("%sId: %s", kind, id),
		Retryable: false,
		Metadata:  map[string]interface{}{"kind": kind, "id": id},
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidParameterError reports a scoring parameter that cannot be defaulted.
func NewInvalidParameterError(param, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidParameter,
		Message:   fmt.Sprintf("invalid parameter %s", param),
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"parameter": param},
		Timestamp: time.Now().UTC(),
	}
}

// NewDataIntegrityError reports malformed reference data found at load time.
func NewDataIntegrityError(details string, problems ...string) *StandardError {
	e := &StandardError{
		Code:      ErrCodeDataIntegrity,
		Message:   "reference data failed integrity checks",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
	if len(problems) > 0 {
		e.Metadata = map[string]interface{}{"problems": problems}
	}
	return e
}

// NewCatalogDecodeFailedError reports a reference document that is not valid JSON.
func NewCatalogDecodeFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogDecodeFailed,
		Message:   "reference data could not be decoded",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogUnavailableError reports a backing store that could not be read.
func NewCatalogUnavailableError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogUnavailable,
		Message:   fmt.Sprintf("reference source '%s' unavailable", source),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion
// ==========================

// AsStandard unwraps err to a *StandardError, wrapping unknown errors as internal.
func AsStandard(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// CodeOf returns the error code carried by err, or "" for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	return AsStandard(err).Code
}

// IsClientError reports whether err was caused by caller input.
func IsClientError(err error) bool {
	switch CodeOf(err) {
	case ErrCodeReferenceNotFound, ErrCodeInvalidParameter:
		return true
	}
	return false
}

// HTTPStatus maps an error code onto a transport status.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeReferenceNotFound:
		return http.StatusNotFound
	case ErrCodeInvalidParameter:
		return http.StatusBadRequest
	case ErrCodeCatalogUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCatalogUnavailable:
		return 3
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError for the workflow engine.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "NOT_FOUND"), strings.Contains(codeStr, "PARAMETER"):
		return "CLIENT_INPUT"
	case strings.HasPrefix(codeStr, "CATALOG"), strings.Contains(codeStr, "INTEGRITY"):
		return "REFERENCE_DATA"
	default:
		return "OTHER"
	}
}
