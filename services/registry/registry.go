package registry

import "strings"

// Static is an allow-list registry gating which assets and oracle feeds a
// pool factory may bind. Empty lists allow everything, matching a
// single-operator deployment where the config file is the authority.
type Static struct {
	assets  map[string]bool
	oracles map[string]bool
}

func NewStatic(assets, oracles []string) *Static {
	s := &Static{}
	if len(assets) > 0 {
		s.assets = make(map[string]bool, len(assets))
		for _, asset := range assets {
			s.assets[normalize(asset)] = true
		}
	}
	if len(oracles) > 0 {
		s.oracles = make(map[string]bool, len(oracles))
		for _, oracle := range oracles {
			s.oracles[normalize(oracle)] = true
		}
	}
	return s
}

func (s *Static) AssetAllowed(symbol string) bool {
	if s == nil || s.assets == nil {
		return true
	}
	return s.assets[normalize(symbol)]
}

func (s *Static) OracleAllowed(name string) bool {
	if s == nil || s.oracles == nil {
		return true
	}
	return s.oracles[normalize(name)]
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
