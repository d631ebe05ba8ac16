package store

import "errors"

var (
	ErrNotFound      = errors.New("resource not found")
	ErrInvalidMetric = errors.New("metric cannot be ranked")
)
