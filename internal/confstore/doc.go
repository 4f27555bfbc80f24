// Package confstore persists the operator-editable broker record to flash.
//
// The record is a small JSON document holding the MQTT broker address,
// credentials, port and topic. It is loaded once at boot, edited only
// through the configuration portal, and written back only when the portal
// flow reports a change. Flash on these nodes has a finite write budget;
// nothing in this package writes unconditionally.
//
// A missing or corrupt record is not an error: the node falls back to
// defaults and the portal gives the operator a chance to fix it. Only an
// unreadable filesystem surfaces an error, and the caller answers that by
// sleeping and retrying next wake.
package confstore
