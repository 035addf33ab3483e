package main

import (
	"regexp"
	"strings"
)

// bt-device -l prints one "Name (AA:BB:CC:DD:EE:FF)" line per paired device.
var addressPattern = regexp.MustCompile(`\(([0-9A-Fa-f:]+)\)`)

const connectedMarker = "Connected: yes"

// extractAddress returns the first parenthesized colon-hex token in text.
func extractAddress(text string) (string, bool) {
	m := addressPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// parseConnected reports whether bluetoothctl info output says the device is connected.
// The output format is not versioned; anything other than the marker counts as disconnected.
func parseConnected(output string) bool {
	return strings.Contains(output, connectedMarker)
}

// parseDeviceName returns the value of the "Name:" line, if any.
func parseDeviceName(output string) string {
	for line := range strings.Lines(output) {
		trim := strings.TrimSpace(line)
		if name, ok := strings.CutPrefix(trim, "Name:"); ok {
			return strings.TrimSpace(name)
		}
	}
	return ""
}
