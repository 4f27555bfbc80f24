package hal

import (
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// ResetRequested reports whether the reset-configuration input is held.
//
// The pin is pulled up and read active-low; holding it to ground through
// boot requests a wipe of the persisted broker record and the stored
// network credentials. Debouncing is the operator's problem: the pin is
// sampled once, and "held through a reboot" is already a deliberate act.
//
// A missing or unconfigurable pin reads as "not held" so a node with
// unpopulated GPIO still boots.
func ResetRequested(pinName string) bool {
	if pinName == "" {
		return false
	}

	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return false
	}

	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return false
	}

	return pin.Read() == gpio.Low
}
