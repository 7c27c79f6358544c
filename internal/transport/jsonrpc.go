package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// JSON-RPC 2.0 error codes.
const (
	ErrParseCode      = -32700
	ErrInvalidReq     = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
)

// maxBatchSize caps the number of calls in one batch request.
const maxBatchSize = 50

var (
	// ErrParse indicates a body that is not valid JSON.
	ErrParse = errors.New("parse error")
	// ErrInvalidRequest indicates valid JSON that is not a JSON-RPC 2.0 request.
	ErrInvalidRequest = errors.New("invalid request")
)

// Request represents a JSON-RPC 2.0 request. A nil ID marks a notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      any    `json:"id,omitempty"`
}

// Error represents a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ErrorCode returns the JSON-RPC code for a parse error.
func ErrorCode(err error) int {
	if errors.Is(err, ErrParse) {
		return ErrParseCode
	}
	return ErrInvalidReq
}

// ParseRequest parses and validates a single JSON-RPC request.
func ParseRequest(body io.Reader) (Request, error) {
	reqs, batch, err := ParseBatch(body)
	if err != nil {
		return Request{}, err
	}
	if batch {
		return Request{}, fmt.Errorf("%w: batch not allowed", ErrInvalidRequest)
	}
	return reqs[0], nil
}

// ParseBatch parses a single request or a batch array. batch reports whether
// the payload was an array. Any invalid member rejects the whole batch.
func ParseBatch(body io.Reader) (reqs []Request, batch bool, err error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrParse, err)
	}
	raw = bytes.TrimSpace(raw)

	if len(raw) == 0 || raw[0] != '[' {
		req, err := decodeRequest(raw)
		if err != nil {
			return nil, false, err
		}
		return []Request{req}, false, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(items) == 0 || len(items) > maxBatchSize {
		return nil, true, fmt.Errorf("%w: batch must hold 1 to %d calls", ErrInvalidRequest, maxBatchSize)
	}
	reqs = make([]Request, 0, len(items))
	for _, item := range items {
		req, err := decodeRequest(item)
		if err != nil {
			return nil, true, err
		}
		reqs = append(reqs, req)
	}
	return reqs, true, nil
}

func decodeRequest(raw []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return Request{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return Request{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return Request{}, ErrInvalidRequest
	}
	return req, nil
}

// Result builds a success response.
func Result(id any, result any) Response {
	return Response{JSONRPC: "2.0", Result: result, ID: id}
}

// Failure builds an error response.
func Failure(id any, code int, message string, data any) Response {
	return Response{
		JSONRPC: "2.0",
		Error:   &Error{Code: code, Message: message, Data: data},
		ID:      id,
	}
}

// WriteError writes a JSON-RPC error response.
func WriteError(w http.ResponseWriter, id any, code int, message string, data any) {
	writeJSON(w, http.StatusOK, Failure(id, code, message, data))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
