package scenario

// CatalogEntry is one predefined practice role.
type CatalogEntry struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Role    string `json:"role"`
	Summary string `json:"description"`
}

var catalog = []CatalogEntry{
	{ID: "job_interview", Title: "Job Interview", Role: "interviewer", Summary: "conducting a job interview"},
	{ID: "restaurant", Title: "Restaurant Conversation", Role: "restaurant server", Summary: "helping customer with menu and orders"},
	{ID: "business_meeting", Title: "Business Meeting", Role: "business colleague", Summary: "discussing project updates and collaboration"},
	{ID: "travel", Title: "Travel & Tourism", Role: "travel assistant", Summary: "helping traveler with information and bookings"},
	{ID: "shopping", Title: "Shopping", Role: "shop assistant", Summary: "helping customer find and purchase products"},
	{ID: "doctor_visit", Title: "Doctor Visit", Role: "doctor", Summary: "medical consultation with patient"},
}

// Catalog returns a copy of the predefined role catalog in display order.
func Catalog() []CatalogEntry {
	out := make([]CatalogEntry, len(catalog))
	copy(out, catalog)
	return out
}

func lookupPredefined(key string) (CatalogEntry, bool) {
	for _, entry := range catalog {
		if entry.ID == key {
			return entry, true
		}
	}
	return CatalogEntry{}, false
}
