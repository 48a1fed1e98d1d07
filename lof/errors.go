package lof

import "errors"

var (
	// ErrInvalidConfig is returned when Options fail validation.
	ErrInvalidConfig = errors.New("lof: invalid configuration")

	// ErrInsufficientData is returned when an insertion is attempted while the
	// database holds fewer than minPts other objects. The insertion fails but
	// the engine stays usable; the caller may retry once more objects exist.
	ErrInsufficientData = errors.New("lof: not enough objects for minPts")

	// ErrDistanceQuery is returned when the database collaborator fails a kNN
	// or reverse-kNN query. After a failed insertion the table state is
	// undefined and must be rebuilt with a batch run.
	ErrDistanceQuery = errors.New("lof: distance query failed")
)
