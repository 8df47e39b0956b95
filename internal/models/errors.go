package models

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrStorage        = errors.New("storage failure")
	ErrAlreadyUpvoted = errors.New("report already upvoted by user")
	ErrNotUpvoted     = errors.New("report not upvoted by user")
)
