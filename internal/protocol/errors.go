package protocol

import "errors"

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrUnknownReason = errors.New("unknown terminal reason")
	ErrBadPercept    = errors.New("percept must be an array of 5 booleans")
)
