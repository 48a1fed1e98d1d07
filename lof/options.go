package lof

import (
	"fmt"
	"math"
)

// Default sizes for the paged record stores backing the two tables.
const (
	DefaultPageSize  = 4000          // bytes per page
	DefaultCacheSize = math.MaxInt32 // effectively unbounded cache
)

// Options configures the LOF engines and the record stores behind their
// tables. The zero value of PageSize and CacheSize selects the defaults;
// MinPts must always be set explicitly.
type Options struct {
	// MinPts is the number of nearest neighbors considered for each object.
	MinPts int

	// PageSize is the size of a record store page in bytes.
	PageSize int

	// CacheSize is the size of a record store residency cache in bytes.
	CacheSize int
}

// withDefaults fills in unset sizes.
func (o Options) withDefaults() Options {
	if o.PageSize == 0 {
		o.PageSize = DefaultPageSize
	}
	if o.CacheSize == 0 {
		o.CacheSize = DefaultCacheSize
	}
	return o
}

// Validate checks the options once, before any data is processed.
func (o Options) Validate() error {
	if o.MinPts <= 0 {
		return fmt.Errorf("%w: minPts must be greater than 0, got %d", ErrInvalidConfig, o.MinPts)
	}
	if o.PageSize <= 0 {
		return fmt.Errorf("%w: pageSize must be greater than 0, got %d", ErrInvalidConfig, o.PageSize)
	}
	if o.CacheSize < o.PageSize {
		return fmt.Errorf("%w: cacheSize %d is smaller than pageSize %d", ErrInvalidConfig, o.CacheSize, o.PageSize)
	}
	return nil
}
