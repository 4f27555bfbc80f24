// Package wifi manages network association for the node.
//
// This package manages:
//   - Joining a previously associated network through wpa_supplicant
//   - Falling back to the configuration portal when no network is reachable
//   - Applying portal-submitted credentials and persisting them
//   - Wiping stored networks when a factory reset is requested
//
// The node is asleep for almost all of its life, so association is a
// per-boot event rather than a supervised connection. Associate blocks
// until the link is up, the portal produced new settings, or the portal
// itself timed out; the caller decides what each outcome means for the
// rest of the wake cycle.
//
// All interaction with wpa_supplicant goes through wpa_cli. The control
// socket protocol is stable but undocumented in places; the CLI is the
// supported surface and keeps this package free of socket parsing.
package wifi
