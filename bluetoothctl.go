package main

import (
	"context"
)

// deviceInfo is what one "bluetoothctl info" call tells us.
type deviceInfo struct {
	Connected bool
	Name      string
}

// bluetoothctl queries and changes device connection state through the
// bluetoothctl CLI.
type bluetoothctl struct {
	runner Runner
	bin    string
}

func newBluetoothctl(runner Runner, bin string) *bluetoothctl {
	if bin == "" {
		bin = defaultBluetoothctl
	}
	return &bluetoothctl{runner: runner, bin: bin}
}

func connectVerb(connect bool) string {
	if connect {
		return "connect"
	}
	return "disconnect"
}

// info runs "bluetoothctl info <addr>". A non-zero exit means disconnected.
func (b *bluetoothctl) info(ctx context.Context, addr string) (deviceInfo, error) {
	res, err := b.runner.Run(ctx, b.bin, "info", addr)
	if err != nil {
		return deviceInfo{}, &QueryError{Device: addr, Err: err}
	}
	if !res.Success {
		return deviceInfo{}, nil
	}
	return deviceInfo{
		Connected: parseConnected(res.Stdout),
		Name:      parseDeviceName(res.Stdout),
	}, nil
}

func (b *bluetoothctl) isConnected(ctx context.Context, addr string) (bool, error) {
	di, err := b.info(ctx, addr)
	return di.Connected, err
}

// setConnected asks bluetoothctl to connect or disconnect addr and returns
// whether the command reported success. The resulting state is not checked.
func (b *bluetoothctl) setConnected(ctx context.Context, addr string, connect bool) (bool, error) {
	res, err := b.runner.Run(ctx, b.bin, connectVerb(connect), addr)
	if err != nil {
		return false, &ToggleError{Device: addr, Connect: connect, Err: err}
	}
	return res.Success, nil
}
