package models

// Change announces a persisted mutation to connected clients.
type Change struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
	Action string `json:"action"`
}
