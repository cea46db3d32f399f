package service

import "errors"

var (
	ErrNotFound     = errors.New("not_found")
	ErrAuthMismatch = errors.New("auth_mismatch")
	ErrNotModified  = errors.New("not_modified")
)
