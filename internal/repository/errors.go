package repository

import "errors"

var (
	// ErrDuplicateAnswer is returned when an author already has a live answer on the question.
	ErrDuplicateAnswer = errors.New("author already answered this question")
	// ErrStaleVersion is returned when a question changed between read and write.
	ErrStaleVersion = errors.New("question was modified concurrently")
	// ErrNotAccepted is returned when unaccepting an answer that is not the accepted one.
	ErrNotAccepted = errors.New("answer is not the accepted answer")
)
