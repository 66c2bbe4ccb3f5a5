package ar

// Index resolves foreign keys across one snapshot of collections. Build it once
// per load; every lookup returns nil when the related record is missing.
type Index struct {
	buyers   map[int64]*Buyer
	units    map[int64]*Unit
	projects map[int64]*Project
	invoices map[int64]*Invoice
}

// NewIndex builds lookup maps. When ids repeat, the first record wins, matching
// a linear find over the original slice.
func NewIndex(buyers []Buyer, units []Unit, projects []Project, invoices []Invoice) *Index {
	idx := &Index{
		buyers:   make(map[int64]*Buyer, len(buyers)),
		units:    make(map[int64]*Unit, len(units)),
		projects: make(map[int64]*Project, len(projects)),
		invoices: make(map[int64]*Invoice, len(invoices)),
	}
	for i := range buyers {
		if _, ok := idx.buyers[buyers[i].ID]; !ok {
			idx.buyers[buyers[i].ID] = &buyers[i]
		}
	}
	for i := range units {
		if _, ok := idx.units[units[i].ID]; !ok {
			idx.units[units[i].ID] = &units[i]
		}
	}
	for i := range projects {
		if _, ok := idx.projects[projects[i].ID]; !ok {
			idx.projects[projects[i].ID] = &projects[i]
		}
	}
	for i := range invoices {
		if _, ok := idx.invoices[invoices[i].ID]; !ok {
			idx.invoices[invoices[i].ID] = &invoices[i]
		}
	}
	return idx
}

// Buyer returns the buyer with id, or nil.
func (x *Index) Buyer(id int64) *Buyer {
	if x == nil || id == 0 {
		return nil
	}
	return x.buyers[id]
}

// Unit returns the unit with id, or nil.
func (x *Index) Unit(id int64) *Unit {
	if x == nil || id == 0 {
		return nil
	}
	return x.units[id]
}

// Project returns the project with id, or nil.
func (x *Index) Project(id int64) *Project {
	if x == nil || id == 0 {
		return nil
	}
	return x.projects[id]
}

// Invoice returns the invoice with id, or nil.
func (x *Index) Invoice(id int64) *Invoice {
	if x == nil || id == 0 {
		return nil
	}
	return x.invoices[id]
}

// ProjectForInvoice resolves the invoice's project directly or through its unit.
func (x *Index) ProjectForInvoice(inv Invoice) *Project {
	if p := x.Project(inv.ProjectID); p != nil {
		return p
	}
	if u := x.Unit(inv.UnitID); u != nil {
		return x.Project(u.ProjectID)
	}
	return nil
}

// ProjectName returns the resolved project name or UnknownProject.
func (x *Index) ProjectName(inv Invoice) string {
	if p := x.ProjectForInvoice(inv); p != nil && p.Name != "" {
		return p.Name
	}
	return UnknownProject
}
