package model

// City is a municipality zones and users belong to.
type City struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	Region     string `json:"region"`
	Population int64  `json:"population"`
}
