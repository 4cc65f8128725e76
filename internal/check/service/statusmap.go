package service

import "vetgate/internal/check/models"

// providerStatusMap translates the provider's status vocabulary into the local
// lifecycle. Several provider codes collapse into one local status on purpose:
// callers of this service reason about four states, not the provider's dozen.
//
// Codes absent from this table are treated as unknown. An unknown code keeps
// the check pending and is logged; a new provider code must never crash or
// corrupt the workflow, only delay its terminal transition until the table
// learns the code.
var providerStatusMap = map[string]models.Status{
	"received":    models.StatusPending,
	"pending":     models.StatusPending,
	"in_progress": models.StatusPending,

	"clear":     models.StatusComplete,
	"completed": models.StatusComplete,

	"needs_review": models.StatusConsider,
	"adverse":      models.StatusConsider,

	"cancelled":           models.StatusSuspended,
	"disputed_unresolved": models.StatusSuspended,
}

// mapProviderCode resolves a provider status code to the local status. The
// second return reports whether the code is known.
func mapProviderCode(code string) (models.Status, bool) {
	status, ok := providerStatusMap[code]
	return status, ok
}
