package market

import "pollmarket/internal/models"

// CanAdminister reports whether caller may perform a privileged
// lifecycle transition on the poll: either the poll's creator or the
// admin identity may.
//
// admin must come from service configuration, never from the request
// being authorized. A caller that picks the admin candidate itself can
// trivially present its own identity and pass the check; see the
// engine tests, which document exactly that failure mode.
func CanAdminister(poll *models.Poll, caller, admin string) bool {
	return caller == poll.Authority || caller == admin
}
