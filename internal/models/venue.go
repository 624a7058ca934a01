package models

import "time"

// Media is an image reference used for venue galleries, avatars and banners.
type Media struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

type Location struct {
	Address   string  `json:"address,omitempty"`
	City      string  `json:"city,omitempty"`
	Zip       string  `json:"zip,omitempty"`
	Country   string  `json:"country,omitempty"`
	Continent string  `json:"continent,omitempty"`
	Lat       float64 `json:"lat,omitempty"`
	Lng       float64 `json:"lng,omitempty"`
}

type VenueMeta struct {
	Wifi      bool `json:"wifi"`
	Parking   bool `json:"parking"`
	Breakfast bool `json:"breakfast"`
	Pets      bool `json:"pets"`
}

type Venue struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Media       []Media     `json:"media"`
	Price       float64     `json:"price"`
	MaxGuests   int         `json:"maxGuests"`
	Rating      float64     `json:"rating"`
	Created     time.Time   `json:"created"`
	Updated     time.Time   `json:"updated"`
	Meta        VenueMeta   `json:"meta"`
	Location    Location    `json:"location"`
	Owner       *ProfileRef `json:"owner,omitempty"`
	Bookings    []Booking   `json:"bookings,omitempty"`
}

// OwnedBy reports whether the named user owns the venue.
func (v *Venue) OwnedBy(userName string) bool {
	return v != nil && v.Owner != nil && userName != "" && v.Owner.Name == userName
}

// VenueInput is the create/update payload for a venue.
type VenueInput struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Media       []Media   `json:"media"`
	Price       float64   `json:"price"`
	MaxGuests   int       `json:"maxGuests"`
	Rating      float64   `json:"rating"`
	Meta        VenueMeta `json:"meta"`
	Location    Location  `json:"location"`
}
