package webhook

import (
	"fmt"

	"github.com/BearBump/TrackHook/internal/tracking"
	"github.com/pkg/errors"
)

var (
	// ErrInvalidPayload fails the whole request.
	ErrInvalidPayload = tracking.ErrInvalidPayload
	// ErrShipmentNotFound: no shipment matches the tracker id or any tracking number.
	ErrShipmentNotFound = errors.New("shipment not found")
)

// ResolverError is a storage failure while looking up or relinking a shipment.
type ResolverError struct {
	Op  string
	Err error
}

func (e *ResolverError) Error() string {
	return fmt.Sprintf("resolve shipment: %s: %v", e.Op, e.Err)
}

func (e *ResolverError) Unwrap() error { return e.Err }
