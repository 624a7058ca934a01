package validation

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holidaze/internal/models"
)

var (
	checkIn  = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	checkOut = time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)
)

func TestBookingValidator(t *testing.T) {
	v := NewBookingValidator(4)

	tests := []struct {
		name string
		form BookingForm
		want FieldErrors
	}{
		{
			name: "valid",
			form: BookingForm{StartDate: checkIn, EndDate: checkOut, Guests: 2},
		},
		{
			name: "guests at capacity",
			form: BookingForm{StartDate: checkIn, EndDate: checkOut, Guests: 4},
		},
		{
			name: "missing check-in",
			form: BookingForm{EndDate: checkOut, Guests: 1},
			want: FieldErrors{"startDate": "Check-in date is required"},
		},
		{
			name: "missing check-out",
			form: BookingForm{StartDate: checkIn, Guests: 1},
			want: FieldErrors{"endDate": "Check-out date is required"},
		},
		{
			name: "same day",
			form: BookingForm{StartDate: checkIn, EndDate: checkIn, Guests: 1},
			want: FieldErrors{"endDate": "Check-out must be after check-in"},
		},
		{
			name: "check-out before check-in",
			form: BookingForm{StartDate: checkOut, EndDate: checkIn, Guests: 1},
			want: FieldErrors{"endDate": "Check-out must be after check-in"},
		},
		{
			name: "no guests",
			form: BookingForm{StartDate: checkIn, EndDate: checkOut},
			want: FieldErrors{"guests": "At least 1 guest is required"},
		},
		{
			name: "too many guests",
			form: BookingForm{StartDate: checkIn, EndDate: checkOut, Guests: 5},
			want: FieldErrors{"guests": "Max guests allowed: 4"},
		},
		{
			name: "everything missing",
			form: BookingForm{},
			want: FieldErrors{
				"startDate": "Check-in date is required",
				"endDate":   "Check-out date is required",
				"guests":    "At least 1 guest is required",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Validate(tt.form)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBookingValidator_NoUpperBound(t *testing.T) {
	v := NewBookingValidator(0)
	assert.Equal(t, 0, v.MaxGuests())
	assert.Nil(t, v.Validate(BookingForm{StartDate: checkIn, EndDate: checkOut, Guests: 50}))
}

func TestValidateLogin(t *testing.T) {
	tests := []struct {
		name  string
		form  LoginForm
		want  FieldErrors
		email string
	}{
		{
			name:  "valid after sanitising",
			form:  LoginForm{Email: "  kari <nordmann>@stud.noroff.no ", Password: " secret123 "},
			email: "karinordmann@stud.noroff.no",
		},
		{
			name: "empty",
			form: LoginForm{},
			want: FieldErrors{"email": "Email required.", "password": "Password required"},
		},
		{
			name:  "not an email",
			form:  LoginForm{Email: "kari", Password: "secret123"},
			want:  FieldErrors{"email": "Valid email address required"},
			email: "kari",
		},
		{
			name:  "wrong domain",
			form:  LoginForm{Email: "kari@gmail.com", Password: "secret123"},
			want:  FieldErrors{"email": "Only emails ending with stud.noroff.no approved."},
			email: "kari@gmail.com",
		},
		{
			name:  "short password",
			form:  LoginForm{Email: "kari@stud.noroff.no", Password: "short"},
			want:  FieldErrors{"password": "Password needs to be at least 8 characters."},
			email: "kari@stud.noroff.no",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleaned, errs := ValidateLogin(tt.form)
			if tt.want == nil {
				assert.Nil(t, errs)
			} else {
				assert.Equal(t, tt.want, errs)
			}
			assert.Equal(t, tt.email, cleaned.Email)
		})
	}
}

func TestValidateRegister(t *testing.T) {
	valid := RegisterForm{Name: "kari_nordmann", Email: "kari@stud.noroff.no", Password: "secret123"}

	_, errs := ValidateRegister(valid)
	assert.Nil(t, errs)

	t.Run("SpecialSymbols", func(t *testing.T) {
		form := valid
		form.Name = "kari!"
		_, errs := ValidateRegister(form)
		assert.Equal(t, FieldErrors{"name": "Name cannot contain special symbols."}, errs)
	})

	t.Run("MissingFields", func(t *testing.T) {
		_, errs := ValidateRegister(RegisterForm{})
		assert.Equal(t, "Name required.", errs["name"])
		assert.Equal(t, "Email required", errs["email"])
		assert.Equal(t, "Password required", errs["password"])
	})

	t.Run("AvatarMustBeURL", func(t *testing.T) {
		form := valid
		form.Avatar = "not a url"
		_, errs := ValidateRegister(form)
		assert.Equal(t, FieldErrors{"avatar": "Must be a valid URL"}, errs)

		form.Avatar = "https://img.example.com/me.png"
		_, errs = ValidateRegister(form)
		assert.Nil(t, errs)
	})
}

func TestValidateVenue(t *testing.T) {
	input := models.VenueInput{
		Name:        " Cabin ",
		Description: "By the lake",
		Price:       100,
		MaxGuests:   2,
		Rating:      4,
		Media: []models.Media{
			{URL: "https://img.example.com/1.jpg", Alt: "front"},
			{URL: " ", Alt: ""},
		},
	}

	cleaned, errs := ValidateVenue(input)
	assert.Nil(t, errs)
	assert.Equal(t, "Cabin", cleaned.Name)
	assert.Len(t, cleaned.Media, 1)
	assert.Len(t, input.Media, 2, "input must not be modified")

	t.Run("AllRulesFail", func(t *testing.T) {
		_, errs := ValidateVenue(models.VenueInput{
			Rating: 6,
			Media: []models.Media{
				{URL: "", Alt: "missing url"},
				{URL: "nope", Alt: ""},
			},
		})

		assert.Equal(t, FieldErrors{
			"name":         "Venue name is required",
			"description":  "Description is required",
			"price":        "Price must be positive",
			"maxGuests":    "At least 1 guest is required",
			"rating":       "Rating must be between 0 and 5",
			"media[0].url": "Image URL is required",
			"media[1].url": "Invalid image URL",
			"media[1].alt": "Alt text is required",
		}, errs)
	})

	t.Run("NegativeRating", func(t *testing.T) {
		in := input
		in.Rating = -1
		_, errs := ValidateVenue(in)
		assert.Equal(t, FieldErrors{"rating": "Rating must be between 0 and 5"}, errs)
	})
}

func TestValidateProfile(t *testing.T) {
	form := ProfileForm{
		Bio:    "hi",
		Avatar: models.Media{URL: "https://img.example.com/a.png", Alt: "me"},
		Banner: models.Media{URL: "https://img.example.com/b.png", Alt: "view"},
	}
	_, errs := ValidateProfile(form)
	assert.Nil(t, errs)

	form.Avatar.URL = "bad"
	form.Banner = models.Media{}
	_, errs = ValidateProfile(form)
	assert.Equal(t, FieldErrors{
		"avatar.url": "Must be a valid URL",
		"banner.url": "URL is required",
		"banner.alt": "Alt text is required",
	}, errs)
}

func TestSanitizeEmail(t *testing.T) {
	assert.Equal(t, "a.b+c@stud.noroff.no", SanitizeEmail("  a.b+c@stud.noroff.no\t"))
	assert.Equal(t, "ab@stud.noroff.no", SanitizeEmail("a b@stud.noroff.no"))
	assert.Equal(t, "", SanitizeEmail("   "))
	assert.Equal(t, "kari@stud.noroff.no", SanitizeEmail("kari\"<>@stud.noroff.no"))
}

func TestFieldErrors_Error(t *testing.T) {
	errs := FieldErrors{"b": "second", "a": "first"}
	assert.Equal(t, "a: first; b: second", errs.Error())

	wrapped := fmt.Errorf("open booking: %w", errs)
	got, ok := AsFieldErrors(wrapped)
	require.True(t, ok)
	assert.Equal(t, "first", got["a"])

	_, ok = AsFieldErrors(errors.New("plain"))
	assert.False(t, ok)
}
