package domain

// Ward is the top-level geographic grouping.
type Ward struct {
	ID   string
	Name string
}

// SubZone belongs to exactly one ward.
type SubZone struct {
	ID     string
	WardID string
	Name   string
}
