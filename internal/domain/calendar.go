package domain

// Marker annotates a calendar day that has at least one session. Emphasis is
// set when the day falls in the month being viewed.
type Marker struct {
	Marked   bool `json:"marked"`
	Emphasis bool `json:"emphasis"`
	Count    int  `json:"count"`
}

// CalendarDay is one date bucket in snapshot order.
type CalendarDay struct {
	Date     string           `json:"date"`
	Sessions []WorkoutSession `json:"sessions"`
	Marker   Marker           `json:"marker"`
}
