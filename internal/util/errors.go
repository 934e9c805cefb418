package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailReserved      = errors.New("this email address is reserved")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountBlocked     = errors.New("your account has been blocked, please contact support")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrAdminProtected     = errors.New("admin accounts cannot be modified")
	ErrChallengeNotFound  = errors.New("challenge not found")
	ErrPremiumRequired    = errors.New("premium subscription required")
	ErrEmptyFeedback      = errors.New("feedback is empty")
	ErrMissingCredentials = errors.New("username and password are required")
	ErrNameRequired       = errors.New("name is required")
	ErrInvalidFileType    = errors.New("invalid file type")
	ErrFileTooLarge       = errors.New("file too large")
)
