// Package catalog holds the static screening package definitions that
// constrain what can be submitted to the provider.
package catalog

// Catalog is a read-only lookup of screening packages keyed by ID.
type Catalog struct {
	byID  map[PackageID]ScreeningPackage
	order []PackageID
}

// New builds a catalog from the given packages. Later duplicates of an ID are
// ignored; the first definition wins.
func New(packages ...ScreeningPackage) *Catalog {
	c := &Catalog{byID: make(map[PackageID]ScreeningPackage, len(packages))}
	for _, p := range packages {
		if _, exists := c.byID[p.ID]; exists {
			continue
		}
		c.byID[p.ID] = p
		c.order = append(c.order, p.ID)
	}
	return c
}

// Get looks up a package by ID.
func (c *Catalog) Get(id PackageID) (ScreeningPackage, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// List returns all packages in seed order. The returned slice is a copy.
func (c *Catalog) List() []ScreeningPackage {
	out := make([]ScreeningPackage, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}
