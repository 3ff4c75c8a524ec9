package query

import "errors"

var (
	ErrMissingChatID         = errors.New("chat id is required")
	ErrNotLoggedIn           = errors.New("not logged in")
	ErrEmptyMessage          = errors.New("message text is empty")
	ErrWrongOldPassword      = errors.New("old password is incorrect")
	ErrRegisteredLoginFailed = errors.New("registered, but failed to log in")
	ErrPasswordMismatch      = errors.New("passwords do not match")
)
