package grok

// ModelInfo describes one model variant offered by the API.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DefaultModel is used when setup does not pick a model explicitly.
const DefaultModel = "grok-4"

// Models returns the catalog of known model variants, in display order.
func Models() []ModelInfo {
	return []ModelInfo{
		{ID: "grok-4", Name: "Grok 4", Description: "Latest flagship model"},
		{ID: "grok-3-mini", Name: "Grok 3 Mini", Description: "Efficient next-generation model"},
		{ID: "grok-3-fast", Name: "Grok 3 Fast", Description: "High-speed processing model"},
		{ID: "grok-3-mini-fast", Name: "Grok 3 Mini Fast", Description: "Optimized for speed and efficiency"},
		{ID: "grok-3", Name: "Grok 3", Description: "Advanced conversational model"},
	}
}

// KnownModel reports whether id appears in the catalog.
func KnownModel(id string) bool {
	for _, m := range Models() {
		if m.ID == id {
			return true
		}
	}
	return false
}
