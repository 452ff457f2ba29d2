package domain

type Address struct {
	ID          string   `json:"id"`
	CustomerID  string   `json:"customer_id"`
	Title       string   `json:"title"`
	FullAddress string   `json:"full_address"`
	Landmark    string   `json:"landmark,omitempty"`
	City        string   `json:"city"`
	Pincode     string   `json:"pincode"`
	DistanceKm  *float64 `json:"distance_km,omitempty"`
	IsDefault   bool     `json:"is_default"`
}

// Expired reports whether the address predates the mandatory distance field
// and has to be re-entered before checkout.
func (a Address) Expired() bool {
	return a.DistanceKm == nil || *a.DistanceKm < 0
}

// AddressSnapshot is the copy of an address stored on an order. It never
// follows later edits of the customer's address book.
type AddressSnapshot struct {
	Title       string  `json:"title"`
	FullAddress string  `json:"full_address"`
	Landmark    string  `json:"landmark,omitempty"`
	City        string  `json:"city"`
	Pincode     string  `json:"pincode"`
	DistanceKm  float64 `json:"distance_km"`
}

func (a Address) Snapshot() AddressSnapshot {
	s := AddressSnapshot{
		Title:       a.Title,
		FullAddress: a.FullAddress,
		Landmark:    a.Landmark,
		City:        a.City,
		Pincode:     a.Pincode,
	}
	if a.DistanceKm != nil {
		s.DistanceKm = *a.DistanceKm
	}
	return s
}
