package model

import "errors"

// Storage sentinels shared by every Store implementation.
var (
	ErrNoRecord       = errors.New("no matching record")
	ErrOverlap        = errors.New("overlapping appointment")
	ErrDuplicate      = errors.New("duplicate record")
	ErrDoctorNotFound = errors.New("doctor not found")
)
