package errors

import "errors"

var (
	ErrEmptyContent = errors.New("empty content")
	ErrFetch        = errors.New("fetch failed")
	ErrEmbedding    = errors.New("embedding failed")
	ErrNotFound     = errors.New("not found")
	ErrInvalid      = errors.New("invalid")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}
