package models

import "errors"

var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrJobNotFound       = errors.New("job not found")
	ErrInvalidTransition = errors.New("invalid job status transition")
	ErrInvalidSelection  = errors.New("invalid selection")
	ErrUnauthorized      = errors.New("unauthorized")
)
