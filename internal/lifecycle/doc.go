// Package lifecycle implements the wake-cycle state machine for adsnode.
//
// This is the heart of the firmware: the sequence that takes the node from
// cold boot through network association, broker connection, a single
// sample publication, and back into deep sleep, including every divergent
// failure path. Hardware access, the broker session, Wi-Fi and persistence
// are collaborators reached through small interfaces; this package owns
// only the decisions.
//
// # Cycle context
//
// All per-cycle mutable state (connection state, the captured sample, the
// sent flag, the link-loss budget) lives in a Cycle struct created at wake
// and discarded at sleep. Nothing in this package survives a sleep
// boundary; the only state that does is the broker record on flash, owned
// by confstore.
//
// # Invariants
//
//   - At most one Sample is captured per wake cycle.
//   - At most one publish attempt is made per wake cycle (the sent flag
//     guards repeat loop iterations before sleep is reached).
//   - State transitions happen only through Dispatcher.Dispatch, never
//     directly in the pipeline.
//   - Every failure path resolves to a sleep interval: the full cycle or
//     the shortened retry interval. Nothing is fatal.
package lifecycle
