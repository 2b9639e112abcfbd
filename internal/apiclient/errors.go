package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"storefront-client/internal/domain"
)

// Kind classifies a failed API call.
type Kind int

const (
	KindUnexpected Kind = iota
	KindAuthentication
	KindForbidden
	KindValidation
	KindConflict
	KindStock
	KindNotFound
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindStock:
		return "stock"
	case KindNotFound:
		return "not_found"
	case KindNetwork:
		return "network"
	default:
		return "unexpected"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindAuthentication:
		return domain.ErrAuthentication
	case KindForbidden:
		return domain.ErrForbidden
	case KindValidation:
		return domain.ErrValidation
	case KindConflict:
		return domain.ErrConflict
	case KindStock:
		return domain.ErrInsufficientStock
	case KindNotFound:
		return domain.ErrNotFound
	case KindNetwork:
		return domain.ErrNetwork
	default:
		return domain.ErrUnexpectedStatus
	}
}

// FieldError is one field-level complaint from a validation response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error is returned for every failed request. It unwraps to the matching
// domain sentinel and, for transport failures, to the underlying cause.
type Error struct {
	Kind       Kind
	Method     string
	Path       string
	StatusCode int
	Detail     string
	Fields     []FieldError
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Method, e.Path)
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.sentinel().Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind.sentinel(), e.Err}
	}
	return []error{e.Kind.sentinel()}
}

// ErrorMessage returns the server-provided detail carried by err, or fallback
// when there is none (transport failures, empty bodies, non-API errors).
func ErrorMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// errorBody accepts FastAPI-style {"detail": ...} as well as
// {"message": ..., "errors": [...]} envelopes.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Errors  []FieldError    `json:"errors"`
}

type detailEntry struct {
	Loc  []interface{} `json:"loc"`
	Msg  string        `json:"msg"`
	Type string        `json:"type"`
}

func newStatusError(method, path string, status int, raw []byte) *Error {
	detail, fields := parseErrorBody(raw)
	return &Error{
		Kind:       classify(status, detail),
		Method:     method,
		Path:       path,
		StatusCode: status,
		Detail:     detail,
		Fields:     fields,
	}
}

func parseErrorBody(raw []byte) (string, []FieldError) {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", nil
	}
	if len(body.Detail) > 0 {
		var text string
		if err := json.Unmarshal(body.Detail, &text); err == nil {
			return strings.TrimSpace(text), nil
		}
		var entries []detailEntry
		if err := json.Unmarshal(body.Detail, &entries); err == nil && len(entries) > 0 {
			fields := make([]FieldError, 0, len(entries))
			parts := make([]string, 0, len(entries))
			for _, e := range entries {
				field := locPath(e.Loc)
				fields = append(fields, FieldError{Field: field, Message: e.Msg, Code: e.Type})
				if field != "" {
					parts = append(parts, field+": "+e.Msg)
				} else {
					parts = append(parts, e.Msg)
				}
			}
			return strings.Join(parts, "; "), fields
		}
	}
	return strings.TrimSpace(body.Message), body.Errors
}

func locPath(loc []interface{}) string {
	parts := make([]string, 0, len(loc))
	for i, v := range loc {
		s := fmt.Sprint(v)
		if i == 0 && (s == "body" || s == "query" || s == "path") {
			continue
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ".")
}

func classify(status int, detail string) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindAuthentication
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusBadRequest:
		lower := strings.ToLower(detail)
		switch {
		case strings.Contains(lower, "insufficient stock"):
			return KindStock
		case strings.Contains(lower, "already registered"),
			strings.Contains(lower, "already taken"),
			strings.Contains(lower, "already exists"):
			return KindConflict
		default:
			return KindValidation
		}
	default:
		return KindUnexpected
	}
}
