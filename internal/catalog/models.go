package catalog

// PackageID identifies a screening package in the catalog. Package IDs are
// human-readable slugs fixed at deploy time, not UUIDs.
type PackageID string

// Tier classifies packages for validation purposes: higher tiers include
// driving-record checks and therefore require driver's license fields.
type Tier string

const (
	TierBasic         Tier = "basic"
	TierStandard      Tier = "standard"
	TierComprehensive Tier = "comprehensive"
)

// RequiresDriverLicense reports whether intake for this tier must carry
// driver's license details.
func (t Tier) RequiresDriverLicense() bool {
	return t == TierStandard || t == TierComprehensive
}

// ScreeningPackage is an immutable catalog entry. Entries are created at
// deploy/config time and never mutated; reseeding requires a redeploy.
type ScreeningPackage struct {
	ID                    PackageID `json:"id"`
	Name                  string    `json:"name"`
	Tier                  Tier      `json:"tier"`
	PriceCents            int       `json:"price_cents"`
	EstimatedDurationDays int       `json:"estimated_duration_days"`
	IncludedChecks        []string  `json:"included_checks"`
	IsRecommended         bool      `json:"is_recommended"`
}
