package validation

import "strings"

type LoginForm struct {
	Email    string `json:"email" validate:"required,email,student_email"`
	Password string `json:"password" validate:"required,min=8"`
}

type RegisterForm struct {
	Name         string `json:"name" validate:"required,plain_name"`
	Email        string `json:"email" validate:"required,email,student_email"`
	Password     string `json:"password" validate:"required,min=8"`
	Avatar       string `json:"avatar" validate:"omitempty,url"`
	VenueManager bool   `json:"venueManager"`
}

var loginMessages = messages{
	"email|required":      "Email required.",
	"email|email":         "Valid email address required",
	"email|student_email": "Only emails ending with stud.noroff.no approved.",
	"password|required":   "Password required",
	"password|min":        "Password needs to be at least 8 characters.",
}

var registerMessages = messages{
	"name|required":       "Name required.",
	"name|plain_name":     "Name cannot contain special symbols.",
	"email|required":      "Email required",
	"email|email":         "Valid email address required",
	"email|student_email": "Only emails ending with stud.noroff.no approved.",
	"password|required":   "Password required",
	"password|min":        "Password needs to be at least 8 characters.",
	"avatar|url":          "Must be a valid URL",
}

// ValidateLogin sanitises the credentials and validates them. The returned
// form is what should be sent to the API.
func ValidateLogin(form LoginForm) (LoginForm, FieldErrors) {
	form.Email = SanitizeEmail(form.Email)
	form.Password = strings.TrimSpace(form.Password)
	return form, check(form, loginMessages)
}

func ValidateRegister(form RegisterForm) (RegisterForm, FieldErrors) {
	form.Name = strings.TrimSpace(form.Name)
	form.Email = SanitizeEmail(form.Email)
	form.Password = strings.TrimSpace(form.Password)
	form.Avatar = strings.TrimSpace(form.Avatar)
	return form, check(form, registerMessages)
}
