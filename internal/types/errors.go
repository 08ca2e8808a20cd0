package types

import "errors"

// ErrTrade matches every *TradeError via errors.Is.
var ErrTrade = errors.New("trade rejected")

// TradeError is an order the broker (or a pre-trade check) refused.
type TradeError struct {
	Reason string
	Err    error
}

func NewTradeError(reason string) *TradeError {
	return &TradeError{Reason: reason}
}

func (e *TradeError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *TradeError) Unwrap() error { return e.Err }

func (e *TradeError) Is(target error) bool { return target == ErrTrade }
