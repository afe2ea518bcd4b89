package models

import "errors"

// Kind classifies failures so callers can map them to responses.
type Kind string

const (
	KindUpstream   Kind = "upstream"
	KindInput      Kind = "input"
	KindStore      Kind = "store"
	KindEmptyBatch Kind = "empty_batch"
	KindNotFound   Kind = "not_found"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrEmptyBatch       = errors.New("no candles data to insert")
	ErrMalformedRow     = errors.New("malformed candle row")
	ErrInvalidTimestamp = errors.New("invalid timestamp format")
	ErrInvalidLimit     = errors.New("invalid limit")
	ErrNoData           = errors.New("no data returned")
)

// Error is the domain error carried across layers.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
	// Transport is set for upstream failures that never got a usable response
	// (timeout, connection refused, malformed body).
	Transport bool
}

func (e *Error) Error() string {
	msg := e.Message
	switch {
	case msg == "" && e.Err != nil:
		msg = e.Err.Error()
	case e.Err != nil && !isSentinel(e.Err) && e.Err.Error() != msg:
		msg += ": " + e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

func isSentinel(err error) bool {
	switch err {
	case ErrNotFound, ErrEmptyBatch, ErrMalformedRow, ErrInvalidTimestamp, ErrNoData:
		return true
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsTransport reports whether err is an upstream transport failure.
func IsTransport(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindUpstream && e.Transport
}

// MessageOf returns the human message of the first *Error in err's chain.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

func UpstreamError(op, msg string, err error) error {
	return &Error{Kind: KindUpstream, Op: op, Message: msg, Err: err}
}

func TransportError(op string, err error) error {
	return &Error{Kind: KindUpstream, Op: op, Message: "upstream unavailable", Err: err, Transport: true}
}

func InputError(op, msg string, err error) error {
	return &Error{Kind: KindInput, Op: op, Message: msg, Err: err}
}

func StoreError(op string, err error) error {
	return &Error{Kind: KindStore, Op: op, Message: "store operation failed", Err: err}
}

func NotFoundError(op, msg string) error {
	return &Error{Kind: KindNotFound, Op: op, Message: msg, Err: ErrNotFound}
}

func EmptyBatchError(op string) error {
	return &Error{Kind: KindEmptyBatch, Op: op, Message: ErrEmptyBatch.Error(), Err: ErrEmptyBatch}
}
