package validation

import (
	"strings"

	"holidaze/internal/models"
)

type mediaForm struct {
	URL string `json:"url" validate:"required,url"`
	Alt string `json:"alt" validate:"required"`
}

type venueForm struct {
	Name        string      `json:"name" validate:"required"`
	Description string      `json:"description" validate:"required"`
	Price       float64     `json:"price" validate:"gt=0"`
	MaxGuests   int         `json:"maxGuests" validate:"gte=1"`
	Rating      float64     `json:"rating" validate:"gte=0,lte=5"`
	Media       []mediaForm `json:"media" validate:"dive"`
}

var venueMessages = messages{
	"name|required":        "Venue name is required",
	"description|required": "Description is required",
	"price|gt":             "Price must be positive",
	"maxGuests|gte":        "At least 1 guest is required",
	"rating|gte":           "Rating must be between 0 and 5",
	"rating|lte":           "Rating must be between 0 and 5",
	"url|required":         "Image URL is required",
	"url|url":              "Invalid image URL",
	"alt|required":         "Alt text is required",
}

// ValidateVenue cleans a create/update payload and validates it. Media rows
// with neither URL nor alt text are dropped from the returned input.
func ValidateVenue(in models.VenueInput) (models.VenueInput, FieldErrors) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Media = CompactMedia(in.Media)

	form := venueForm{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		MaxGuests:   in.MaxGuests,
		Rating:      in.Rating,
		Media:       make([]mediaForm, len(in.Media)),
	}
	for i, m := range in.Media {
		form.Media[i] = mediaForm{URL: m.URL, Alt: m.Alt}
	}

	return in, check(form, venueMessages)
}

// CompactMedia trims every entry and removes the blank ones. The input slice
// is left untouched.
func CompactMedia(media []models.Media) []models.Media {
	out := make([]models.Media, 0, len(media))
	for _, m := range media {
		m.URL = strings.TrimSpace(m.URL)
		m.Alt = strings.TrimSpace(m.Alt)
		if m.URL == "" && m.Alt == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}
