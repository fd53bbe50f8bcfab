package remote

import "errors"

var (
	// ErrNotConnected is returned when a forwarded operation is attempted
	// but no remote host is active.
	ErrNotConnected = errors.New("no remote host active, run 'dpm connect <name>'")

	// ErrHostNotFound is returned when the named host is not in the
	// registry.
	ErrHostNotFound = errors.New("host not registered")

	// ErrNoKey is returned when no usable private key could be loaded for
	// authentication.
	ErrNoKey = errors.New("no usable ssh private key found")

	// ErrRemoteToolMissing is returned when the connected host has no dpm
	// binary on its PATH.
	ErrRemoteToolMissing = errors.New("dpm not found on remote host")
)
