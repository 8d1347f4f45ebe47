package model

// Stock is one member of the screening universe.
type Stock struct {
	Symbol  string   `yaml:"symbol" json:"symbol"`
	Name    string   `yaml:"name" json:"name"`
	Sector  string   `yaml:"sector" json:"sector"`
	Indices []string `yaml:"indices" json:"indices"`
}

// InIndex reports whether the stock belongs to the named index.
func (s Stock) InIndex(index string) bool {
	for _, idx := range s.Indices {
		if idx == index {
			return true
		}
	}
	return false
}
