// Package power puts the node into deep sleep between wake cycles.
//
// Deep sleep is an RTC-armed power-down (rtcwake): execution halts, the
// RTC alarm brings the board back, and the firmware starts over from
// boot. Some board/kernel combinations do not go down cleanly, so after
// requesting sleep the controller falls through to a full reset — the
// reset only ever executes if the sleep request failed to halt us, or if
// the platform suspends in place instead of powering off, and in both
// cases a reboot restores the "every wake starts from boot" contract the
// rest of the firmware assumes.
package power
