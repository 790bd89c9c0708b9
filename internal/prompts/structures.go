package prompts

import "sort"

// Section is one named part of a musical structure.
type Section struct {
	ID          string
	Description string
}

// The closed structure catalog. Unit counts for hierarchical strategies come
// from here, never from caller input.
var structures = map[string][]Section{
	"simple": {
		{ID: "intro", Description: "Introduction section"},
		{ID: "main", Description: "Main body section"},
		{ID: "outro", Description: "Conclusion section"},
	},
	"song": {
		{ID: "intro", Description: "Introduction section"},
		{ID: "verse1", Description: "First verse section"},
		{ID: "chorus1", Description: "First chorus section"},
		{ID: "verse2", Description: "Second verse section"},
		{ID: "chorus2", Description: "Second chorus section"},
		{ID: "bridge", Description: "Bridge section"},
		{ID: "chorus3", Description: "Final chorus section"},
		{ID: "outro", Description: "Outro section"},
	},
	"classical": {
		{ID: "exposition", Description: "Exposition section presenting main themes"},
		{ID: "development", Description: "Development section exploring and varying themes"},
		{ID: "recapitulation", Description: "Recapitulation section restating main themes"},
		{ID: "coda", Description: "Coda section providing final conclusion"},
	},
}

// StructureSections returns the ordered sections for a structure name.
func StructureSections(name string) ([]Section, bool) {
	sections, ok := structures[name]
	if !ok {
		return nil, false
	}
	cp := make([]Section, len(sections))
	copy(cp, sections)
	return cp, true
}

// StructureNames returns the sorted catalog keys.
func StructureNames() []string {
	names := make([]string, 0, len(structures))
	for name := range structures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
