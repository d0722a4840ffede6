package service

import "errors"

var (
	ErrValidation         = errors.New("validation")
	ErrDuplicateName      = errors.New("name already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
)
