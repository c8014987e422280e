// Package types holds the wire envelopes shared by every HTTP response.
package types

// APIError is the public error payload: a stable machine code, a
// human-readable message, and optional structured details for clients
// that can act on them (validation field maps, mostly).
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// Success wraps a payload in the standard data envelope.
func Success(data any) SuccessEnvelope {
	return SuccessEnvelope{Data: data}
}

// Failure builds the standard error envelope.
func Failure(code, message string, details any) ErrorEnvelope {
	return ErrorEnvelope{Error: APIError{Code: code, Message: message, Details: details}}
}
