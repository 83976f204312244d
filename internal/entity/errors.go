package entity

import "errors"

var (
	ErrLeadNotFound = errors.New("lead not found")

	// ErrDuplicateLead is returned by a store when the (email, day) unique
	// constraint rejects an insert.
	ErrDuplicateLead = errors.New("lead already exists for this email today")
)
