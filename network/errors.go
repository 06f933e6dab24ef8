package network

import "golang.org/x/xerrors"

var (
	// ErrUnknownDevice is returned when an operation references a device that has no adjacency entry.
	ErrUnknownDevice = xerrors.New("unknown device")
	// ErrNotConnected is returned when a send or disconnect targets a pair of devices without an edge.
	ErrNotConnected = xerrors.New("devices are not connected")
	// ErrArityMismatch is returned by the bulk topology operations when the id slices differ in length.
	ErrArityMismatch = xerrors.New("the two id slices are expected to have the same length")
	// ErrAlreadyRegistered is returned when a device that is bound to a network is registered again.
	ErrAlreadyRegistered = xerrors.New("device is already registered")
	// ErrNetworkShutdown is returned by Send after the network was shut down.
	ErrNetworkShutdown = xerrors.New("network is shut down")
)
