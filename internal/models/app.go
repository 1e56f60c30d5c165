package models

// AppEntry is one named URL in the registry.
type AppEntry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}
