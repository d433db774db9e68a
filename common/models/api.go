package models

// EventsResponse answers a get-events request with the tab's buffer,
// newest first.
type EventsResponse struct {
	Events []CapturedEvent `json:"events"`
}
