package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
)

func ipcCall(sock string, req IPCRequest) (IPCResponse, error) {
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return IPCResponse{}, fmt.Errorf("connect to daemon: %w (is `btswitch daemon` running?)", err)
	}
	defer conn.Close()

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return IPCResponse{}, fmt.Errorf("send request: %w", err)
	}

	var resp IPCResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return IPCResponse{}, fmt.Errorf("read response: %w", err)
	}
	return resp, nil
}

func runCommand(cfg Config, req IPCRequest) error {
	resp, err := ipcCall(cfg.SocketPath, req)
	if err != nil {
		return err
	}
	if resp.Error != "" {
		return fmt.Errorf("%s", resp.Error)
	}
	return json.NewEncoder(os.Stdout).Encode(resp.Snapshot)
}

// parseDesired maps the optional toggle argument to a requested direction.
func parseDesired(arg string) (*bool, error) {
	var v bool
	switch arg {
	case "":
		return nil, nil
	case "on", "connect":
		v = true
	case "off", "disconnect":
		v = false
	default:
		return nil, fmt.Errorf("invalid direction %q, want on or off", arg)
	}
	return &v, nil
}
