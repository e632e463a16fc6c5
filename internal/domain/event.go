package domain

// Event is a scheduled happening attendees can register for.
type Event struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Date        string   `json:"date"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	OrganizerID string   `json:"organizerId"`
}

// PriceOrZero returns the ticket price, treating an absent price as free.
func (e Event) PriceOrZero() float64 {
	if e.Price == nil {
		return 0
	}
	return *e.Price
}

// IsFree reports whether attending costs nothing.
func (e Event) IsFree() bool {
	return e.PriceOrZero() == 0
}
