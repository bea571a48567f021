// Package autherr defines the coded errors that cross the workflow boundary.
//
// Domain-rule violations are detected locally and returned with a precise
// code so the caller can correct its request. Storage and unexpected mail
// failures are logged with full detail where they occur and collapsed to
// CodeInternalServerError before leaving the service.
package autherr

import "errors"

// Code is the wire-visible error kind carried in the Err envelope.
type Code string

const (
	CodeUnknown             Code = "UNKNOWN"
	CodeInternalServerError Code = "INTERNAL_SERVER_ERROR"
	CodeBadRequest          Code = "BAD_REQUEST"
	CodeNotFound            Code = "NOT_FOUND"
	CodeMethodNotAllowed    Code = "METHOD_NOT_ALLOWED"

	CodeUserNonexistent     Code = "USER_NONEXISTENT"
	CodeUserNameEmpty       Code = "USER_NAME_EMPTY"
	CodeUserDataNonexistent Code = "USER_DATA_NONEXISTENT"

	CodeVerificationChallengeNonexistent Code = "VERIFICATION_CHALLENGE_NONEXISTENT"
	CodeVerificationChallengeTimedOut    Code = "VERIFICATION_CHALLENGE_TIMED_OUT"
	CodeVerificationChallengeUsed        Code = "VERIFICATION_CHALLENGE_USED"
	CodeVerificationChallengeWrongKind   Code = "VERIFICATION_CHALLENGE_WRONG_KIND"

	CodeEmailNonexistent Code = "EMAIL_NONEXISTENT"
	CodeEmailExistent    Code = "EMAIL_EXISTENT"
	CodeEmailBounced     Code = "EMAIL_BOUNCED"
	CodeEmailUnknown     Code = "EMAIL_UNKNOWN"

	CodeParentPermissionNonexistent Code = "PARENT_PERMISSION_NONEXISTENT"
	CodeParentPermissionExistent    Code = "PARENT_PERMISSION_EXISTENT"

	CodePasswordNonexistent      Code = "PASSWORD_NONEXISTENT"
	CodePasswordExistent         Code = "PASSWORD_EXISTENT"
	CodePasswordIncorrect        Code = "PASSWORD_INCORRECT"
	CodePasswordInsecure         Code = "PASSWORD_INSECURE"
	CodePasswordResetNonexistent Code = "PASSWORD_RESET_NONEXISTENT"
	CodePasswordResetTimedOut    Code = "PASSWORD_RESET_TIMED_OUT"

	CodeAPIKeyNonexistent  Code = "API_KEY_NONEXISTENT"
	CodeAPIKeyUnauthorized Code = "API_KEY_UNAUTHORIZED"
)

// Error couples a Code with an optional message and wrapped cause.
type Error struct {
	code Code
	msg  string
	err  error
}

// New returns an Error with the given code. The message is optional context
// for logs; the caller only ever sees the code.
func New(code Code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{code: code, msg: msg, err: err}
}

func (e *Error) Error() string {
	switch {
	case e.msg != "" && e.err != nil:
		return string(e.code) + ": " + e.msg + ": " + e.err.Error()
	case e.msg != "":
		return string(e.code) + ": " + e.msg
	case e.err != nil:
		return string(e.code) + ": " + e.err.Error()
	}
	return string(e.code)
}

func (e *Error) Unwrap() error { return e.err }

// Code returns the error's code.
func (e *Error) Code() Code { return e.code }

// CodeOf extracts the code from err, unwrapping as needed.
// Errors without a code report CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return CodeUnknown
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}
