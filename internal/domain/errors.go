package domain

import "errors"

var (
	// ErrIngestion marks a single source file that could not be loaded.
	// It never aborts an ingestion run.
	ErrIngestion = errors.New("ingestion failed")

	// ErrIndexWrite is returned when adding to or clearing the index fails.
	ErrIndexWrite = errors.New("index write failed")

	// ErrIndexSearch is logged when a search cannot be served; callers get
	// an empty result instead.
	ErrIndexSearch = errors.New("index search failed")

	// ErrModelInvocation covers language model timeouts, transport errors and
	// malformed responses. It is recovered inside the orchestrator.
	ErrModelInvocation = errors.New("model invocation failed")

	ErrNotFound = errors.New("not found")

	// ErrInvalidInput marks a request the caller can fix, such as an unknown
	// ticket status.
	ErrInvalidInput = errors.New("invalid input")
)
