// Package journal provides an optional SQLite record of wake cycles.
//
// This package manages:
//   - A per-node boot counter incremented once per wake
//   - One row per cycle with its final state and outcome
//   - Schema creation on first open (additive-only changes after that)
//
// The journal exists for field diagnosis: a node that drains its battery
// early or publishes gaps can be pulled and its last few hundred cycles
// inspected. It is disabled by default because every flash write costs
// wear and wake time; Open returns a nil Journal when disabled and every
// method on a nil Journal is a no-op, so callers never branch on it.
//
// Reading values are never stored. The broker holds the data; the
// journal holds only lifecycle outcomes.
//
// Security Considerations:
//   - The journal file is created with 0600 permissions
//   - All statements use parameterised queries
package journal
