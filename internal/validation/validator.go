// Package validation holds the form rules for login, registration, venues,
// profiles and bookings. Every validator returns a field-to-message map.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"holidaze/internal/models"
)

var validate *validator.Validate

var (
	plainNamePattern   = regexp.MustCompile(`^[\w\s]+$`)
	emailStripPattern  = regexp.MustCompile("[^a-zA-Z0-9@.!#$%&'*+/=?^_`{|}~-]")
	studentMailPattern = regexp.MustCompile(regexp.QuoteMeta(models.EmailDomain) + `$`)
)

func init() {
	validate = validator.New()

	// Field keys follow the JSON names the forms are submitted with.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	_ = validate.RegisterValidation("student_email", func(fl validator.FieldLevel) bool {
		return studentMailPattern.MatchString(fl.Field().String())
	})

	_ = validate.RegisterValidation("plain_name", func(fl validator.FieldLevel) bool {
		return plainNamePattern.MatchString(fl.Field().String())
	})
}

// FieldErrors maps a field key (for example "endDate" or "media[0].url") to
// the message shown next to that field.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, "; ")
}

// Has reports whether field failed.
func (fe FieldErrors) Has(field string) bool {
	_, ok := fe[field]
	return ok
}

// AsFieldErrors extracts FieldErrors from an error chain.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// SanitizeEmail trims the address and drops characters that cannot appear in
// an email address.
func SanitizeEmail(email string) string {
	return emailStripPattern.ReplaceAllString(strings.TrimSpace(email), "")
}

// messages resolves a failing rule to text. Keys are "field|tag" with field
// being the leaf JSON name, or "|tag" for a per-tag fallback.
type messages map[string]string

func (m messages) lookup(field, tag string) string {
	if msg, ok := m[field+"|"+tag]; ok {
		return msg
	}
	if msg, ok := m["|"+tag]; ok {
		return msg
	}
	return "Invalid value"
}

// check runs struct validation on form and translates failures with msgs.
// The first failing rule of each field wins.
func check(form interface{}, msgs messages) FieldErrors {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"": err.Error()}
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		key := fieldKey(fe.Namespace())
		if _, seen := out[key]; seen {
			continue
		}
		out[key] = msgs.lookup(fe.Field(), fe.Tag())
	}
	return out
}

// fieldKey strips the root struct name from a namespace such as
// "venueForm.media[0].url".
func fieldKey(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func merge(dst, src FieldErrors) FieldErrors {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(FieldErrors, len(src))
	}
	for k, v := range src {
		if _, ok := dst[k]; !ok {
			dst[k] = v
		}
	}
	return dst
}
