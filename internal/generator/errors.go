package generator

import "errors"

var (
	// ErrNoInput means none of the provided source files could be loaded.
	ErrNoInput = errors.New("no usable input clips")

	// ErrNoOutputs means every planned output failed to render.
	ErrNoOutputs = errors.New("no outputs could be generated")
)
