package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user could not be found")
	ErrSendingReplyFailed = errors.New("failed to send reply")
)
