package services

import "github.com/dmitrijs2005/gophaccounts/internal/common"

// Caller-facing failures. Unknown email and wrong password share one value.
var (
	ErrEmailInUse          = common.Conflict("Email in use")
	ErrBadCredentials      = common.Unauthorized("Email or password is wrong")
	ErrNotAuthorized       = common.Unauthorized("Not authorized")
	ErrFileNotFound        = common.BadRequest("File not found")
	ErrUploadFailed        = common.BadRequest("Upload failed, try again")
	ErrInvalidSubscription = common.BadRequest("Unknown subscription")
	ErrMissingEmail        = common.Upstream("Provider returned no email", nil)
)
