package util

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailRegistered     = errors.New("email already registered")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrExamNotFound        = errors.New("exam not found")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrSyncInProgress      = errors.New("a sync is already running for this account")
	ErrUnsupportedProvider = errors.New("unsupported exam provider")
	ErrCredentialFailure   = errors.New("portal rejected the supplied credentials")
)
