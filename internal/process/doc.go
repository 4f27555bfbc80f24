// Package process runs the external helpers adsnode leans on.
//
// Two shapes of execution:
//
//   - Run: one-shot commands with captured output (wpa_cli queries,
//     rtcwake, reboot). Bounded by the caller's context.
//   - Daemon: helpers that must stay up for a bounded phase of the wake
//     cycle (hostapd and dnsmasq while the configuration portal is open).
//     A crashed daemon is restarted with a fixed delay up to a small
//     attempt budget; the portal phase itself is already bounded by its
//     inactivity timeout, so there is no long-running supervision here.
//
// The package never decides policy. Callers own timeouts and what a
// failure means for the cycle.
package process
