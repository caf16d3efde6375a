package doctor

// groupDefinitions defines the check groups with their metadata.
var groupDefinitions = map[string]struct {
	Name        string
	Description string
	CheckIDs    []string
}{
	GroupPackaging: {
		Name:        "Packaging",
		Description: "Required for refreshing the index and installing packages",
		CheckIDs:    []string{IDAptGet, IDDpkg},
	},
	GroupRenderer: {
		Name:        "Renderer",
		Description: "The wkhtmltopdf binary and its font dependencies",
		CheckIDs:    []string{IDWkhtmltopdf, IDFontconfig, IDXfonts},
	},
}

// GetGroups returns all check groups in display order.
func GetGroups() []CheckGroup {
	var groups []CheckGroup
	for _, groupID := range GetAllGroupIDs() {
		def := groupDefinitions[groupID]
		groups = append(groups, CheckGroup{
			ID:          groupID,
			Name:        def.Name,
			Description: def.Description,
		})
	}
	return groups
}

// GetGroupDefinition returns the definition for a specific group.
func GetGroupDefinition(groupID string) (struct {
	Name        string
	Description string
	CheckIDs    []string
}, bool) {
	def, ok := groupDefinitions[groupID]
	return def, ok
}

// GetAllGroupIDs returns all group IDs in display order.
func GetAllGroupIDs() []string {
	return []string{GroupPackaging, GroupRenderer}
}
