// Package portal implements the node's configuration portal.
//
// When the node cannot join a known network it raises a temporary access
// point (hostapd + dnsmasq, supervised by the process package) and serves
// a single-page form over HTTP. The form carries the Wi-Fi credentials
// plus the five broker fields of the persisted record, pre-populated from
// the current configuration so an operator only edits what changed.
//
// The portal blocks its caller — there is nothing else for the node to do
// while it waits for an operator — and closes itself after a fixed period
// of inactivity so an unattended device does not sit in AP mode draining
// its battery. Any HTTP request counts as activity and rearms the timer.
package portal
