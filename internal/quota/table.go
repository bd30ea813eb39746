package quota

import "github.com/yuxishi/quota-provider/internal/model"

// Mapping binds a resource property to the quota it manages.
type Mapping struct {
	Property string
	Identity model.QuotaIdentity
}

// Table is an immutable, ordered property to quota identity table. The
// order of the mappings is the order in which a pass visits properties.
type Table struct {
	mappings []Mapping
	index    map[string]int
}

// NewTable copies mappings into a Table. A repeated property keeps its
// first position and identity.
func NewTable(mappings ...Mapping) Table {
	t := Table{
		mappings: make([]Mapping, 0, len(mappings)),
		index:    make(map[string]int, len(mappings)),
	}
	for _, m := range mappings {
		if _, dup := t.index[m.Property]; dup {
			continue
		}
		t.index[m.Property] = len(t.mappings)
		t.mappings = append(t.mappings, m)
	}
	return t
}

func (t Table) Lookup(property string) (model.QuotaIdentity, bool) {
	i, ok := t.index[property]
	if !ok {
		return model.QuotaIdentity{}, false
	}
	return t.mappings[i].Identity, true
}

func (t Table) Len() int {
	return len(t.mappings)
}

// Mappings returns a copy of the table rows in order.
func (t Table) Mappings() []Mapping {
	out := make([]Mapping, len(t.mappings))
	copy(out, t.mappings)
	return out
}

func (t Table) Properties() []string {
	out := make([]string, len(t.mappings))
	for i, m := range t.mappings {
		out[i] = m.Property
	}
	return out
}
