package domain

import (
	"errors"
	"fmt"
)

// Kind is the stable, machine-readable category of a domain error
type Kind string

const (
	KindValidation Kind = "validation_error"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindUnauth     Kind = "unauthorized"
	KindForbidden  Kind = "forbidden"
	KindExternal   Kind = "external_service_error"
	KindInternal   Kind = "internal"
)

// Kind sentinels, usable with errors.Is
var (
	ErrValidation   = &Error{Kind: KindValidation, Message: "invalid input"}
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "resource not found"}
	ErrConflict     = &Error{Kind: KindConflict, Message: "conflict"}
	ErrUnauthorized = &Error{Kind: KindUnauth, Message: "unauthorized"}
	ErrForbidden    = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrExternal     = &Error{Kind: KindExternal, Message: "external service error"}
)

// Stable error codes
const (
	CodePaymentVerificationFailed = "payment_verification_failed"
	CodeNoOtpRequested            = "no_otp_requested"
	CodeOtpExpired                = "otp_expired"
	CodeOtpMismatch               = "otp_mismatch"
	CodeTokenInvalid              = "token_invalid"
	CodeInvalidCredentials        = "invalid_credentials"
	CodeAlreadyMember             = "already_member"
	CodeInvalidStatus             = "invalid_status"
	CodeDuplicateEmail            = "duplicate_email"
	CodeDuplicatePhone            = "duplicate_phone"
	CodeDuplicateTransaction      = "duplicate_transaction"
	CodeAmountMismatch            = "amount_mismatch"
	CodeGatewayUnavailable        = "gateway_unavailable"
	CodeVillageInUse              = "village_in_use"
)

// Error is a categorized domain error
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind when target carries no code,
// and an exact code otherwise. Forbidden errors also match the
// Unauthorized kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != "" {
		return t.Code == e.Code
	}
	if t.Kind == KindUnauth && e.Kind == KindForbidden {
		return true
	}
	return t.Kind == e.Kind
}

// Retryable reports whether the caller may retry the same request
func (e *Error) Retryable() bool {
	return e.Kind == KindExternal
}

func newError(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// Validation builds a ValidationError
func Validation(code, message string) *Error {
	return newError(KindValidation, code, message, nil)
}

// NotFound builds a NotFound error
func NotFound(message string) *Error {
	return newError(KindNotFound, "", message, nil)
}

// Conflict builds a Conflict error
func Conflict(code, message string) *Error {
	return newError(KindConflict, code, message, nil)
}

// Unauthorized builds an Unauthorized error
func Unauthorized(code, message string) *Error {
	return newError(KindUnauth, code, message, nil)
}

// Forbidden builds a Forbidden error
func Forbidden(message string) *Error {
	return newError(KindForbidden, "", message, nil)
}

// External wraps a failure of an outside system
func External(message string, err error) *Error {
	return newError(KindExternal, CodeGatewayUnavailable, message, err)
}

// KindOf returns the kind of err, KindInternal when it is not a domain error
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// Common errors
var (
	ErrPaymentVerificationFailed = Validation(CodePaymentVerificationFailed, "payment verification failed, invalid signature")
	ErrNoOtpRequested            = Validation(CodeNoOtpRequested, "no OTP requested for this identifier, please request a new OTP")
	ErrOtpExpired                = Validation(CodeOtpExpired, "OTP has expired, please request a new one")
	ErrOtpMismatch               = Unauthorized(CodeOtpMismatch, "invalid OTP, please try again")
	ErrTokenInvalid              = Unauthorized(CodeTokenInvalid, "invalid or expired token")
	ErrInvalidCredentials        = Unauthorized(CodeInvalidCredentials, "invalid credentials")
	ErrAlreadyMember             = Conflict(CodeAlreadyMember, "user already has a sabhasad ID")
	ErrDuplicateEmail            = Validation(CodeDuplicateEmail, "email already registered")
	ErrDuplicatePhone            = Validation(CodeDuplicatePhone, "phone number already registered")
	ErrDuplicateTransaction      = Conflict(CodeDuplicateTransaction, "payment already recorded")
	ErrNotPending                = Conflict(CodeInvalidStatus, "user is not in pending status")
	ErrNotApproved               = Conflict(CodeInvalidStatus, "only approved users can pay the membership fee")
	ErrAlreadyApproved           = Conflict(CodeInvalidStatus, "you are already approved or a member")
	ErrAmountMismatch            = Validation(CodeAmountMismatch, "paid amount does not match the order amount")
	ErrUserNotFound              = NotFound("user not found")
	ErrVillageNotFound           = NotFound("village not found")
	ErrEventNotFound             = NotFound("event not found")
	ErrFamilyMemberNotFound      = NotFound("family member not found")
	ErrMemberNotFound            = NotFound("member not found")
	ErrAdminRequired             = Forbidden("admin access required")
	ErrApprovedRequired          = Forbidden("you must be an approved member")
)
