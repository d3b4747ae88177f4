package repository

import "errors"

// Repository errors
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrSettingsNotFound = errors.New("settings not found")
	ErrPatientNotFound  = errors.New("patient not found")
	ErrSessionNotFound  = errors.New("session not found")
)
