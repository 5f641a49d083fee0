package models

// AccessScope is the set of entities a principal may read or write,
// derived from role and ownership. Admins carry Unrestricted instead of
// enumerated ID sets.
type AccessScope struct {
	Unrestricted bool
	PeriodIDs    map[string]struct{}
	ModuleIDs    map[string]struct{}
	StudentIDs   map[string]struct{}
}

// NewAccessScope returns an empty restricted scope.
func NewAccessScope() *AccessScope {
	return &AccessScope{
		PeriodIDs:  make(map[string]struct{}),
		ModuleIDs:  make(map[string]struct{}),
		StudentIDs: make(map[string]struct{}),
	}
}

// AllowsPeriod reports whether the period is within scope.
func (s *AccessScope) AllowsPeriod(id string) bool {
	if s.Unrestricted {
		return true
	}
	_, ok := s.PeriodIDs[id]
	return ok
}

// AllowsModule reports whether the module is within scope.
func (s *AccessScope) AllowsModule(id string) bool {
	if s.Unrestricted {
		return true
	}
	_, ok := s.ModuleIDs[id]
	return ok
}

// AllowsStudent reports whether the student is within scope.
func (s *AccessScope) AllowsStudent(id string) bool {
	if s.Unrestricted {
		return true
	}
	_, ok := s.StudentIDs[id]
	return ok
}

// ModuleIDList returns the module IDs as a slice for query parameters.
func (s *AccessScope) ModuleIDList() []string {
	ids := make([]string, 0, len(s.ModuleIDs))
	for id := range s.ModuleIDs {
		ids = append(ids, id)
	}
	return ids
}
