package domain

import "errors"

var (
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrForbidden          = errors.New("only doctors can perform this action")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrPatientNotFound    = errors.New("patient not found")
	ErrImportInProgress   = errors.New("import with this idempotency key is in progress")
)
