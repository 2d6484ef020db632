package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bibq/internal/domain"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest    = "bad_request"
	CodeUnauthorized  = "unauthorized"
	CodeUnknownField  = "unknown_field"
	CodeUnknownTag    = "unknown_tag"
	CodeBadFilter     = "bad_filter"
	CodeBadDate       = "bad_date_format"
	CodeBadLimit      = "bad_limit"
	CodeNoData        = "no_data"
	CodeInternalError = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Known   []string `json:"known,omitempty"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

var errorHandlers = []errorHandler{
	unknownFieldHandler,
	unknownTagHandler,
	sentinelHandler(domain.ErrBadFilterSyntax, http.StatusBadRequest, CodeBadFilter),
	sentinelHandler(domain.ErrBadDateFormat, http.StatusBadRequest, CodeBadDate),
	sentinelHandler(domain.ErrBadLimit, http.StatusBadRequest, CodeBadLimit),
	sentinelHandler(domain.ErrNoData, http.StatusNotFound, CodeNoData),
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// sentinelHandler maps a sentinel error onto a status and code. The wrapped
// message is safe to return: it names the offending filter or value only.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func unknownFieldHandler(w http.ResponseWriter, err error) bool {
	var ufe *domain.UnknownFieldError
	if !errors.As(err, &ufe) {
		return false
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Code: CodeUnknownField, Message: err.Error(), Known: ufe.Known})
	return true
}

func unknownTagHandler(w http.ResponseWriter, err error) bool {
	var ute *domain.UnknownTagError
	if !errors.As(err, &ute) {
		return false
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Code: CodeUnknownTag, Message: err.Error(), Known: ute.Known})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
