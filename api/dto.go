/*
dto.go - Data Transfer Objects for API requests and responses

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALUES:
  Aggregate values are typed by the deployed policy (string, int32 or
  float64), so they travel as `any` in responses and as raw JSON in
  requests. factory.Variant does the decoding.
*/
package api

import "encoding/json"

// SubmitRequest is the body of POST /api/submissions.
type SubmitRequest struct {
	Value json.RawMessage `json:"value"`
}

// AccountDTO is an account's current aggregate.
type AccountDTO struct {
	AccountID string `json:"account_id"`
	Value     any    `json:"value"`
	Policy    string `json:"policy"`
}

// PolicyDTO describes the deployed policy.
type PolicyDTO struct {
	Name      string `json:"name"`
	ValueType string `json:"value_type"`
	Guard     string `json:"guard,omitempty"`
	Default   any    `json:"default"`
}

// ErrorResponse is returned for every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Error codes.
const (
	CodeInvalidJSON     = "invalid_json"
	CodeInvalidValue    = "invalid_value"
	CodeMissingIdentity = "missing_identity"
	CodeStoreFailure    = "store_failure"
	CodeInternal        = "internal_error"
)
