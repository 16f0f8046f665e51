package model

import (
	"encoding/json"
	"fmt"
)

// ErrorKind classifies a failed retrieval.
type ErrorKind uint8

const (
	ErrProvider ErrorKind = iota + 1
	ErrNoDataInRange
	ErrNormalizationFailure
	ErrInsufficientData
	ErrNotFound
)

var errorKindTokens = [...]string{
	0:                       "",
	ErrProvider:             "PROVIDER_ERROR",
	ErrNoDataInRange:        "NO_DATA_IN_RANGE",
	ErrNormalizationFailure: "NORMALIZATION_FAILURE",
	ErrInsufficientData:     "INSUFFICIENT_DATA",
	ErrNotFound:             "NOT_FOUND",
}

func (k ErrorKind) String() string { return tokenOf(errorKindTokens[:], int(k)) }

func (k ErrorKind) MarshalText() ([]byte, error) {
	return marshalToken(errorKindTokens[:], int(k), "error kind")
}

// RetrievalError is the Error variant of a Result.
type RetrievalError struct {
	Kind           ErrorKind
	Symbol         string
	ProviderSymbol string
	Message        string
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Result is either Ok (Payload and Meta set) or Error (Err set).
type Result[T any] struct {
	Payload T
	Meta    *SeriesMeta
	Err     *RetrievalError
}

// Ok wraps a successful payload.
func Ok[T any](payload T, meta *SeriesMeta) Result[T] {
	return Result[T]{Payload: payload, Meta: meta}
}

// Fail builds the Error variant.
func Fail[T any](kind ErrorKind, symbol, providerSymbol, msg string) Result[T] {
	return Result[T]{Err: &RetrievalError{
		Kind:           kind,
		Symbol:         symbol,
		ProviderSymbol: providerSymbol,
		Message:        msg,
	}}
}

// OK reports whether r is the Ok variant.
func (r Result[T]) OK() bool { return r.Err == nil }

// MarshalJSON renders {"status":"OK","data":...,"metadata":...} or
// {"status":"ERROR","message":...,"code":...}.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(struct {
			Status  string    `json:"status"`
			Message string    `json:"message"`
			Code    ErrorKind `json:"code"`
		}{"ERROR", r.Err.Message, r.Err.Kind})
	}
	return json.Marshal(struct {
		Status   string      `json:"status"`
		Data     T           `json:"data"`
		Metadata *SeriesMeta `json:"metadata"`
	}{"OK", r.Payload, r.Meta})
}
