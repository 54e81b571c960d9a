package retrieval

import "errors"

var (
	// ErrDictionaryRequired is returned when a dictionary store is not provided.
	ErrDictionaryRequired = errors.New("dictionary store required")

	// ErrVectorIndexRequired is returned when a vector index is not provided.
	ErrVectorIndexRequired = errors.New("vector index required")
)
