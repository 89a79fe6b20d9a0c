package diag

import "errors"

var (
	// ErrProviderRegistered is returned when a provider name is already taken.
	ErrProviderRegistered = errors.New("diag: provider already registered")

	// ErrNilProvider is returned when registering a nil provider.
	ErrNilProvider = errors.New("diag: provider required")

	// ErrNameRequired is returned when registering with an empty name.
	ErrNameRequired = errors.New("diag: name required")
)
