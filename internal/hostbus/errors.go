package hostbus

import "errors"

// Sentinel errors returned by bus operations.
var (
	// ErrDriverRegistered is returned when registering a driver whose name
	// is already taken.
	ErrDriverRegistered = errors.New("hostbus: driver already registered")

	// ErrDeviceRegistered is returned when adding a device whose name is
	// already taken.
	ErrDeviceRegistered = errors.New("hostbus: device already registered")

	// ErrDeviceNotFound is returned when the named device does not exist.
	ErrDeviceNotFound = errors.New("hostbus: device not found")

	// ErrAdapterRequired is returned when adding a device without an adapter.
	ErrAdapterRequired = errors.New("hostbus: device requires an adapter")

	// ErrNameRequired is returned when adding a device without a name.
	ErrNameRequired = errors.New("hostbus: device requires a name")
)
