package typec

import "errors"

var (
	// ErrEngineClosed is returned when enabling a port on a closed engine.
	ErrEngineClosed = errors.New("typec: engine closed")

	// ErrNilPort is returned when Enable is called without a port.
	ErrNilPort = errors.New("typec: port required")

	// ErrNilWake is returned when Enable is called without a wake channel.
	ErrNilWake = errors.New("typec: wake channel required")

	// ErrNilState is returned when Enable is called without a state blob.
	ErrNilState = errors.New("typec: port state required")
)
