package main

import "time"

// ControllerState is the lifecycle state of the connection controller.
type ControllerState string

const (
	StateUninitialized ControllerState = "uninitialized"
	StateDiscovering   ControllerState = "discovering"
	StateNoDevice      ControllerState = "no_device"
	StateReady         ControllerState = "ready"
	StateQuerying      ControllerState = "querying"
	StateIdle          ControllerState = "idle"
	StateToggling      ControllerState = "toggling"
)

// Snapshot is what a UI renders. Connected is only meaningful in StateIdle.
type Snapshot struct {
	State     ControllerState `json:"state"`
	Device    string          `json:"device,omitempty"`
	Name      string          `json:"name,omitempty"`
	Connected bool            `json:"connected"`
	Requested *bool           `json:"requested,omitempty"` // last direction asked for by the UI
	LastError string          `json:"last_error,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// IPCRequest is sent from the CLI client to the daemon.
type IPCRequest struct {
	Command string `json:"command"`           // "status" | "toggle" | "refresh"
	Desired *bool  `json:"desired,omitempty"` // toggle only; defaults to !connected
}

// IPCResponse is sent from the daemon back to the CLI client.
type IPCResponse struct {
	Snapshot
	Error string `json:"error,omitempty"`
}
