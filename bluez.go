package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
)

const (
	busName     = "org.bluez"
	bluezRoot   = "/org/bluez"
	deviceIface = "org.bluez.Device1"
	propsIface  = "org.freedesktop.DBus.Properties"
	propsSignal = propsIface + ".PropertiesChanged"
)

// connectSystemBus is a hook for tests to override D-Bus connection behavior.
var connectSystemBus = func() (*dbus.Conn, error) { return dbus.ConnectSystemBus() }

// macFromPath extracts a MAC address from a BlueZ device object path on any adapter.
func macFromPath(path dbus.ObjectPath) string {
	s := string(path)
	if !strings.HasPrefix(s, bluezRoot+"/") {
		return ""
	}
	_, dev, ok := strings.Cut(s, "/dev_")
	if !ok || strings.Contains(dev, "/") {
		return ""
	}
	return strings.ReplaceAll(dev, "_", ":")
}

// connectedChange decodes a PropertiesChanged signal that carries a new
// Device1.Connected value.
func connectedChange(sig *dbus.Signal) (mac string, connected bool, ok bool) {
	if sig == nil || sig.Name != propsSignal {
		return "", false, false
	}
	// Body: [interface_name string, changed_props map[string]Variant, invalidated []string]
	if len(sig.Body) < 2 {
		return "", false, false
	}
	iface, ok := sig.Body[0].(string)
	if !ok || iface != deviceIface {
		return "", false, false
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return "", false, false
	}
	connVar, ok := changed["Connected"]
	if !ok {
		return "", false, false
	}
	connected, ok = connVar.Value().(bool)
	if !ok {
		return "", false, false
	}
	mac = macFromPath(sig.Path)
	if mac == "" {
		return "", false, false
	}
	return mac, connected, true
}

// bluezWatcher reports Connected changes seen on the system bus. It only
// tells us when to re-query; state always comes from bluetoothctl.
type bluezWatcher struct {
	conn *dbus.Conn
	log  zerolog.Logger
}

func newBluezWatcher(log zerolog.Logger) (*bluezWatcher, error) {
	conn, err := connectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect to system bus: %w", err)
	}
	var names []string
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		conn.Close()
		return nil, fmt.Errorf("list bus names: %w", err)
	}
	if !slices.Contains(names, busName) {
		conn.Close()
		return nil, fmt.Errorf("org.bluez not found on system bus, is bluetooth.service running?")
	}
	return &bluezWatcher{conn: conn, log: log}, nil
}

func (w *bluezWatcher) close() {
	w.conn.Close()
}

func (w *bluezWatcher) subscribe() (chan *dbus.Signal, error) {
	err := w.conn.AddMatchSignal(
		dbus.WithMatchInterface(propsIface),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchPathNamespace(bluezRoot),
	)
	if err != nil {
		return nil, fmt.Errorf("add match: %w", err)
	}
	ch := make(chan *dbus.Signal, 16)
	w.conn.Signal(ch)
	return ch, nil
}

// watch calls onChange for every Connected change of device until ctx is
// done or the signal channel is closed.
func (w *bluezWatcher) watch(ctx context.Context, sigCh <-chan *dbus.Signal, device func() string, onChange func(connected bool)) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig, open := <-sigCh:
			if !open {
				return
			}
			mac, connected, ok := connectedChange(sig)
			if !ok || !strings.EqualFold(mac, device()) {
				continue
			}
			w.log.Debug().Str("device", mac).Bool("connected", connected).Msg("connection change signalled")
			onChange(connected)
		}
	}
}
