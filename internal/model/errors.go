package model

import "errors"

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("order not found")
	ErrStorage      = errors.New("storage failure")
	ErrNotification = errors.New("notification failed")
)
