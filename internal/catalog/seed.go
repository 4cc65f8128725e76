package catalog

// SeedDefault returns the catalog shipped with the service. Package contents
// and pricing mirror the provider's published tiers.
func SeedDefault() *Catalog {
	return New(
		ScreeningPackage{
			ID:                    "basic",
			Name:                  "Basic",
			Tier:                  TierBasic,
			PriceCents:            2999,
			EstimatedDurationDays: 2,
			IncludedChecks: []string{
				"SSN trace",
				"National criminal database",
				"Sex offender registry",
			},
		},
		ScreeningPackage{
			ID:                    "standard",
			Name:                  "Standard",
			Tier:                  TierStandard,
			PriceCents:            5999,
			EstimatedDurationDays: 3,
			IsRecommended:         true,
			IncludedChecks: []string{
				"SSN trace",
				"National criminal database",
				"Sex offender registry",
				"County criminal search (7 years)",
				"Motor vehicle record",
			},
		},
		ScreeningPackage{
			ID:                    "comprehensive",
			Name:                  "Comprehensive",
			Tier:                  TierComprehensive,
			PriceCents:            9999,
			EstimatedDurationDays: 5,
			IncludedChecks: []string{
				"SSN trace",
				"National criminal database",
				"Sex offender registry",
				"County criminal search (7 years)",
				"Federal criminal search",
				"Motor vehicle record",
				"Education verification",
				"Employment verification (3 employers)",
			},
		},
	)
}
