package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"
)

// envelopeVersion is the response envelope schema version. Clients pin
// against it.
const envelopeVersion = 1

// successEnvelope wraps successful response bodies.
type successEnvelope struct {
	V       int  `json:"v" doc:"Envelope schema version"`
	Success bool `json:"success" doc:"Always true for successful responses"`
	Data    any  `json:"data,omitempty" doc:"Response payload"`
}

// errorEnvelope wraps error response bodies.
type errorEnvelope struct {
	V       int       `json:"v" doc:"Envelope schema version"`
	Success bool      `json:"success" doc:"Always false for error responses"`
	Error   *APIError `json:"error" doc:"Error details"`
}

// EnvelopeTransformer wraps every response body in a consistent
// {v, success, data|error} envelope. Registered as a huma transformer.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	switch v.(type) {
	case *successEnvelope, *errorEnvelope, successEnvelope, errorEnvelope:
		// Already enveloped.
		return v, nil
	}

	if apiErr, ok := v.(*APIError); ok {
		return &errorEnvelope{V: envelopeVersion, Success: false, Error: apiErr}, nil
	}

	// huma's own errors (validation failures, 404s on unknown routes).
	if statusErr, ok := v.(huma.StatusError); ok {
		return &errorEnvelope{
			V:       envelopeVersion,
			Success: false,
			Error: &APIError{
				status:  statusErr.GetStatus(),
				Code:    statusToCode(statusErr.GetStatus()),
				Message: statusErr.Error(),
			},
		}, nil
	}

	if len(status) > 0 && status[0] >= '4' {
		return &errorEnvelope{
			V:       envelopeVersion,
			Success: false,
			Error: &APIError{
				Code:    statusToCode(statusInt(status)),
				Message: "unknown error",
			},
		}, nil
	}

	return &successEnvelope{V: envelopeVersion, Success: true, Data: v}, nil
}

// statusInt parses a huma status string, defaulting to 500.
func statusInt(status string) int {
	n, err := strconv.Atoi(status)
	if err != nil {
		return 500
	}
	return n
}
