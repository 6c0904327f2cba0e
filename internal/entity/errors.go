package entity

import (
	"context"
	"errors"
	"net/http"
)

var (
	ErrPayloadTooLarge   = errors.New("payload too large")
	ErrMissingInput      = errors.New("missing input")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrCorruptImage      = errors.New("corrupt image")
	ErrInvalidGeometry   = errors.New("invalid geometry")
	ErrUnsupportedAnchor = errors.New("unsupported anchor")
	ErrEncodeFailure     = errors.New("encode failure")
	ErrRateLimited       = errors.New("too many requests")
	ErrTimeout           = errors.New("request timed out")
	ErrInternal          = errors.New("internal failure")
)

type ErrorKind string

const (
	KindPayloadTooLarge   ErrorKind = "PayloadTooLarge"
	KindMissingInput      ErrorKind = "MissingInput"
	KindUnsupportedFormat ErrorKind = "UnsupportedFormat"
	KindCorruptImage      ErrorKind = "CorruptImage"
	KindInvalidGeometry   ErrorKind = "InvalidGeometry"
	KindUnsupportedAnchor ErrorKind = "UnsupportedAnchor"
	KindEncodeFailure     ErrorKind = "EncodeFailure"
	KindRateLimited       ErrorKind = "RateLimited"
	KindTimeout           ErrorKind = "Timeout"
	KindInternalFailure   ErrorKind = "InternalFailure"
)

var kinds = []struct {
	err    error
	kind   ErrorKind
	status int
}{
	{ErrPayloadTooLarge, KindPayloadTooLarge, http.StatusRequestEntityTooLarge},
	{ErrMissingInput, KindMissingInput, http.StatusBadRequest},
	{ErrUnsupportedFormat, KindUnsupportedFormat, http.StatusUnsupportedMediaType},
	{ErrCorruptImage, KindCorruptImage, http.StatusUnprocessableEntity},
	{ErrInvalidGeometry, KindInvalidGeometry, http.StatusUnprocessableEntity},
	{ErrUnsupportedAnchor, KindUnsupportedAnchor, http.StatusBadRequest},
	{ErrEncodeFailure, KindEncodeFailure, http.StatusInternalServerError},
	{ErrRateLimited, KindRateLimited, http.StatusTooManyRequests},
	{ErrTimeout, KindTimeout, http.StatusGatewayTimeout},
	{context.DeadlineExceeded, KindTimeout, http.StatusGatewayTimeout},
}

// KindOf classifies err; anything unrecognised is an InternalFailure.
func KindOf(err error) ErrorKind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternalFailure
}

func (k ErrorKind) HTTPStatus() int {
	for _, e := range kinds {
		if e.kind == k {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// Message is the caller-visible text for a kind. Wrapped causes stay in the logs.
func (k ErrorKind) Message() string {
	for _, e := range kinds {
		if e.kind == k {
			return e.err.Error()
		}
	}
	return ErrInternal.Error()
}
