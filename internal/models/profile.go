package models

// ProfileRef is the embedded owner/customer summary returned with venues and bookings.
type ProfileRef struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Bio    string `json:"bio,omitempty"`
	Avatar *Media `json:"avatar,omitempty"`
	Banner *Media `json:"banner,omitempty"`
}

type ProfileCount struct {
	Venues   int `json:"venues"`
	Bookings int `json:"bookings"`
}

type Profile struct {
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Bio          *string       `json:"bio"`
	Avatar       *Media        `json:"avatar"`
	Banner       *Media        `json:"banner"`
	VenueManager *bool         `json:"venueManager"`
	Bookings     []Booking     `json:"bookings,omitempty"`
	Venues       []Venue       `json:"venues,omitempty"`
	Count        *ProfileCount `json:"_count,omitempty"`
}

// ProfileUpdate carries only the fields that changed; nil fields are omitted.
type ProfileUpdate struct {
	Bio          *string `json:"bio,omitempty"`
	Avatar       *Media  `json:"avatar,omitempty"`
	Banner       *Media  `json:"banner,omitempty"`
	VenueManager *bool   `json:"venueManager,omitempty"`
}

func (u ProfileUpdate) IsEmpty() bool {
	return u.Bio == nil && u.Avatar == nil && u.Banner == nil && u.VenueManager == nil
}

// AuthProfile is the login response payload.
type AuthProfile struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Bio          string `json:"bio"`
	Avatar       *Media `json:"avatar"`
	Banner       *Media `json:"banner"`
	AccessToken  string `json:"accessToken"`
	VenueManager bool   `json:"venueManager"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Avatar       Media  `json:"avatar"`
	VenueManager bool   `json:"venueManager"`
}
