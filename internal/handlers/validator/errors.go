package validator

import (
	"errors"
)

type ErrValidation struct {
	error
}

func NewErrValidation(msg string) *ErrValidation {
	return &ErrValidation{errors.New(msg)}
}
