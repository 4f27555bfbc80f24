package logging

import (
	"fmt"
	"strconv"
	"strings"

	"go.bug.st/serial"
)

// serialPrefix marks a serial output spec: "serial:<device>[@baud]".
const serialPrefix = "serial:"

// defaultBaudRate matches the usual bench console speed.
const defaultBaudRate = 115200

// openSerial opens the serial device named by an output spec.
//
// The spec is "serial:<device>[@baud]", e.g. "serial:/dev/ttyS0@115200".
// The baud rate defaults to 115200 when omitted.
func openSerial(spec string) (serial.Port, error) {
	rest := spec[len(serialPrefix):]

	device := rest
	baud := defaultBaudRate

	if at := strings.LastIndex(rest, "@"); at >= 0 {
		device = rest[:at]
		parsed, err := strconv.Atoi(rest[at+1:])
		if err != nil {
			return nil, fmt.Errorf("parsing baud rate in %q: %w", spec, err)
		}
		baud = parsed
	}

	if device == "" {
		return nil, fmt.Errorf("serial output spec %q has no device", spec)
	}

	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("opening serial console %s: %w", device, err)
	}

	return port, nil
}
