// Package directory talks to the read-only directory service that lists regions
// and the districts of a region.
//
// Calls are single-shot: no pagination, no caching across calls and no retry.
// Every failure (transport error, non-2xx status, undecodable body) is reported
// as an *Error matching ErrUnavailable.
package directory

import (
	"context"
	"errors"
	"fmt"
)

// Client is the directory contract used by form sessions.
type Client interface {
	ListRegions(ctx context.Context) ([]Region, error)
	ListDistricts(ctx context.Context, regionID RegionID) ([]District, error)
}

// ErrUnavailable is the DirectoryUnavailable failure.
var ErrUnavailable = errors.New("directory unavailable")

// Category narrows down why the directory was unavailable.
type Category string

const (
	CategoryTransport Category = "transport"
	CategoryStatus    Category = "status"
	CategoryBadData   Category = "bad_data"
	CategoryCanceled  Category = "canceled"
)

// Error describes a failed directory call.
type Error struct {
	Op         string
	RegionID   RegionID
	Category   Category
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	target := e.Op
	if e.RegionID != "" {
		target = fmt.Sprintf("%s(%s)", e.Op, e.RegionID)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("directory %s [%s]: status %d", target, e.Category, e.StatusCode)
	}
	return fmt.Sprintf("directory %s [%s]: %v", target, e.Category, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes every *Error match ErrUnavailable.
func (e *Error) Is(target error) bool {
	return target == ErrUnavailable
}
