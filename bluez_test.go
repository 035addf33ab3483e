package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMacFromPath(t *testing.T) {
	assert.Equal(t, testAddr, macFromPath("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF"))
	assert.Equal(t, testAddr, macFromPath("/org/bluez/hci1/dev_AA_BB_CC_DD_EE_FF"))
	assert.Empty(t, macFromPath("/org/bluez/hci0"))
	assert.Empty(t, macFromPath("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF/sep1"))
	assert.Empty(t, macFromPath("/org/freedesktop/dev_AA_BB_CC_DD_EE_FF"))
}

func propsChanged(path dbus.ObjectPath, iface string, changed map[string]dbus.Variant) *dbus.Signal {
	return &dbus.Signal{
		Path: path,
		Name: propsSignal,
		Body: []interface{}{iface, changed, []string{}},
	}
}

func TestConnectedChange(t *testing.T) {
	path := dbus.ObjectPath("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF")

	mac, connected, ok := connectedChange(propsChanged(path, deviceIface, map[string]dbus.Variant{
		"Connected": dbus.MakeVariant(true),
		"RSSI":      dbus.MakeVariant(int16(-40)),
	}))
	require.True(t, ok)
	assert.Equal(t, testAddr, mac)
	assert.True(t, connected)

	_, _, ok = connectedChange(propsChanged(path, deviceIface, map[string]dbus.Variant{
		"RSSI": dbus.MakeVariant(int16(-40)),
	}))
	assert.False(t, ok, "no Connected property")

	_, _, ok = connectedChange(propsChanged(path, "org.bluez.MediaControl1", map[string]dbus.Variant{
		"Connected": dbus.MakeVariant(true),
	}))
	assert.False(t, ok, "other interface")

	_, _, ok = connectedChange(propsChanged("/org/bluez/hci0", deviceIface, map[string]dbus.Variant{
		"Connected": dbus.MakeVariant(true),
	}))
	assert.False(t, ok, "not a device path")

	_, _, ok = connectedChange(&dbus.Signal{Name: "org.freedesktop.DBus.NameOwnerChanged"})
	assert.False(t, ok)

	_, _, ok = connectedChange(nil)
	assert.False(t, ok)
}

func TestWatchFiltersDevice(t *testing.T) {
	w := &bluezWatcher{log: zerolog.Nop()}
	ch := make(chan *dbus.Signal, 4)
	ch <- propsChanged("/org/bluez/hci0/dev_11_22_33_44_55_66", deviceIface, map[string]dbus.Variant{
		"Connected": dbus.MakeVariant(true),
	})
	ch <- propsChanged("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF", deviceIface, map[string]dbus.Variant{
		"Connected": dbus.MakeVariant(false),
	})
	close(ch)

	var changes []bool
	w.watch(context.Background(), ch, func() string { return "aa:bb:cc:dd:ee:ff" }, func(connected bool) {
		changes = append(changes, connected)
	})

	assert.Equal(t, []bool{false}, changes)
}

func TestWatchStopsOnContext(t *testing.T) {
	w := &bluezWatcher{log: zerolog.Nop()}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.watch(ctx, make(chan *dbus.Signal), func() string { return testAddr }, func(bool) {})
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
}

func TestNewBluezWatcherWithoutBus(t *testing.T) {
	orig := connectSystemBus
	t.Cleanup(func() { connectSystemBus = orig })
	connectSystemBus = func() (*dbus.Conn, error) {
		return nil, errors.New("dial unix /run/dbus/system_bus_socket: connect: no such file or directory")
	}

	_, err := newBluezWatcher(zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to system bus")

	// The daemon keeps running without the watcher.
	d := newTestDaemon(t, newScriptRunner(), resConnected)
	d.startWatcher(context.Background())
	assert.Equal(t, StateIdle, d.ctrl.Snapshot().State)
}
