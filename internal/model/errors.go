package model

import "errors"

var (
	ErrNotPermitted      = errors.New("insufficient rights")
	ErrSelfAction        = errors.New("cannot change your own account")
	ErrCreatorImmutable  = errors.New("creator account cannot be changed")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrUnknownStatus     = errors.New("unknown status")
)
