package domain

import (
	"errors"
	"fmt"
)

type ErrCode string

const (
	CodeInvalidData           ErrCode = "invalid_data"
	CodeInvalidOperation      ErrCode = "invalid_operation"
	CodeInsufficientInventory ErrCode = "insufficient_inventory"
	CodeNotFound              ErrCode = "not_found"
	CodeForbidden             ErrCode = "forbidden"
	CodeConflict              ErrCode = "conflict"
)

type AppError struct {
	Code    ErrCode
	Message string
	Meta    map[string]string
}

func (e *AppError) Error() string {
	if len(e.Meta) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Meta)
}

func ErrInvalidData(msg string) error { return &AppError{Code: CodeInvalidData, Message: msg} }
func ErrInvalidDataMeta(msg string, meta map[string]string) error {
	return &AppError{Code: CodeInvalidData, Message: msg, Meta: meta}
}
func ErrInvalidOperation(msg string) error {
	return &AppError{Code: CodeInvalidOperation, Message: msg}
}
func ErrInsufficientInventory(requested, remaining int) error {
	return &AppError{
		Code:    CodeInsufficientInventory,
		Message: "not enough seats available",
		Meta: map[string]string{
			"requested": fmt.Sprint(requested),
			"remaining": fmt.Sprint(remaining),
		},
	}
}
func ErrNotFound(msg string) error  { return &AppError{Code: CodeNotFound, Message: msg} }
func ErrForbidden(msg string) error { return &AppError{Code: CodeForbidden, Message: msg} }
func ErrConflict(msg string) error  { return &AppError{Code: CodeConflict, Message: msg} }

// CodeOf returns the AppError code carried by err, or "" for unexpected errors.
func CodeOf(err error) ErrCode {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

func IsCode(err error, code ErrCode) bool { return CodeOf(err) == code }
