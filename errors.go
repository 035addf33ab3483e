package main

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLaunch marks failures to start (or finish waiting on) an external
	// command. A non-zero exit is never an ErrLaunch.
	ErrLaunch = errors.New("command could not be launched")

	// ErrNotAvailable is returned for operations on a controller that has no device.
	ErrNotAvailable = errors.New("no paired device available")

	// ErrBusy is returned when another request is already in flight.
	ErrBusy = errors.New("another request is in progress")

	ErrAlreadyRunning = errors.New("daemon already running")
)

// LaunchError reports that argv could not be spawned or did not finish
// before its deadline.
type LaunchError struct {
	Argv []string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %q: %v", strings.Join(e.Argv, " "), e.Err)
}

func (e *LaunchError) Unwrap() []error { return []error{ErrLaunch, e.Err} }

// QueryError wraps a launch failure of the connection state query.
type QueryError struct {
	Device string
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %v", e.Device, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// ToggleError wraps a launch failure of a connect/disconnect request.
type ToggleError struct {
	Device  string
	Connect bool
	Err     error
}

func (e *ToggleError) Error() string {
	return fmt.Sprintf("%s %s: %v", connectVerb(e.Connect), e.Device, e.Err)
}

func (e *ToggleError) Unwrap() error { return e.Err }
