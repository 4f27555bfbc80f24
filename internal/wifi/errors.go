package wifi

import "errors"

var (
	// ErrAssociationTimeout indicates the network did not come up within
	// the join timeout.
	ErrAssociationTimeout = errors.New("network association timed out")

	// ErrPortalFailed indicates the configuration portal closed without a
	// usable submission.
	ErrPortalFailed = errors.New("configuration portal failed")

	// ErrWpaUnavailable indicates wpa_cli could not be executed at all.
	ErrWpaUnavailable = errors.New("wpa_cli unavailable")
)
