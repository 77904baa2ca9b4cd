// Package apperr defines the closed set of vault error codes and their
// user-facing messages.
package apperr

import (
	"errors"
	"fmt"
)

// Code identifies a failure class. The set is closed.
type Code string

const (
	CodeVaultAlreadyExists Code = "VAULT_ALREADY_EXISTS"
	CodeVaultPathNotExist  Code = "VAULT_PATH_NOT_EXIST"
	CodeInvalidVault       Code = "INVALID_VAULT"
	CodeCorruptVault       Code = "CORRUPT_VAULT"
	CodeVaultNameEmpty     Code = "VAULT_NAME_EMPTY"
	CodeInvalidVaultName   Code = "INVALID_VAULT_NAME"
	CodeNoVaultSelected    Code = "NO_VAULT_SELECTED"
	CodeUnknown            Code = "UNKNOWN_ERROR"
)

// messages must stay static: clients match on them for localization.
var messages = map[Code]string{
	CodeVaultAlreadyExists: "A folder with this name already exists at the selected location. Choose a different name.",
	CodeVaultPathNotExist:  "The vault folder no longer exists. Try selecting it again.",
	CodeInvalidVault:       "This folder is not a valid isnippet vault. Make sure it contains a .isnippet folder.",
	CodeCorruptVault:       "The vault metadata could not be read. One of the .isnippet files is missing or damaged.",
	CodeVaultNameEmpty:     "Please enter a vault name.",
	CodeInvalidVaultName:   "Vault names cannot contain path separators.",
	CodeNoVaultSelected:    "Please select a vault location.",
	CodeUnknown:            "Something went wrong. Please try again.",
}

// Codes returns every known code.
func Codes() []Code {
	return []Code{
		CodeVaultAlreadyExists,
		CodeVaultPathNotExist,
		CodeInvalidVault,
		CodeCorruptVault,
		CodeVaultNameEmpty,
		CodeInvalidVaultName,
		CodeNoVaultSelected,
		CodeUnknown,
	}
}

// Message returns the fixed message for c. Unknown codes get the
// UNKNOWN_ERROR message.
func (c Code) Message() string {
	if m, ok := messages[c]; ok {
		return m
	}
	return messages[CodeUnknown]
}

// Valid reports whether c belongs to the closed set.
func (c Code) Valid() bool {
	_, ok := messages[c]
	return ok
}

// Error is a classified failure. Cause is kept for logs only.
type Error struct {
	Code  Code
	Cause error
}

// New returns an *Error for code with no cause.
func New(code Code) *Error {
	return &Error{Code: code}
}

// Wrap classifies cause under code.
func Wrap(code Code, cause error) *Error {
	return &Error{Code: code, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Cause)
	}
	return string(e.Code)
}

// Message returns the user-facing message for the error code.
func (e *Error) Message() string { return e.Code.Message() }

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error by code, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrVaultAlreadyExists = New(CodeVaultAlreadyExists)
	ErrVaultPathNotExist  = New(CodeVaultPathNotExist)
	ErrInvalidVault       = New(CodeInvalidVault)
	ErrCorruptVault       = New(CodeCorruptVault)
	ErrVaultNameEmpty     = New(CodeVaultNameEmpty)
	ErrInvalidVaultName   = New(CodeInvalidVaultName)
	ErrNoVaultSelected    = New(CodeNoVaultSelected)
	ErrUnknown            = New(CodeUnknown)
)

// CodeOf extracts the code from err. Unclassified errors map to UNKNOWN_ERROR.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// Classify returns err as an *Error, wrapping unclassified errors as UNKNOWN_ERROR.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(CodeUnknown, err)
}
