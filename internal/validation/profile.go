package validation

import (
	"strings"

	"holidaze/internal/models"
)

// ProfileForm is the edit-profile form.
type ProfileForm struct {
	Bio          string       `json:"bio"`
	Avatar       models.Media `json:"avatar"`
	Banner       models.Media `json:"banner"`
	VenueManager bool         `json:"venueManager"`
}

type profileForm struct {
	Bio    string       `json:"bio"`
	Avatar profileMedia `json:"avatar"`
	Banner profileMedia `json:"banner"`
}

type profileMedia struct {
	URL string `json:"url" validate:"required,url"`
	Alt string `json:"alt" validate:"required"`
}

var profileMessages = messages{
	"url|required": "URL is required",
	"url|url":      "Must be a valid URL",
	"alt|required": "Alt text is required",
}

func ValidateProfile(form ProfileForm) (ProfileForm, FieldErrors) {
	form.Bio = strings.TrimSpace(form.Bio)
	form.Avatar.URL = strings.TrimSpace(form.Avatar.URL)
	form.Avatar.Alt = strings.TrimSpace(form.Avatar.Alt)
	form.Banner.URL = strings.TrimSpace(form.Banner.URL)
	form.Banner.Alt = strings.TrimSpace(form.Banner.Alt)

	return form, check(profileForm{
		Bio:    form.Bio,
		Avatar: profileMedia{URL: form.Avatar.URL, Alt: form.Avatar.Alt},
		Banner: profileMedia{URL: form.Banner.URL, Alt: form.Banner.Alt},
	}, profileMessages)
}
