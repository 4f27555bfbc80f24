package portal

import "errors"

// ErrPortalTimeout is returned when the portal closes with no operator
// interaction. The caller should sleep the shortened retry interval.
var ErrPortalTimeout = errors.New("portal: timed out waiting for operator")
