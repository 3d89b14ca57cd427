// Package validate holds the field rules for the delivery form. Each check
// returns a *domain.FieldError naming the field and the violated rule so the
// caller can surface inline feedback; nothing here is fatal.
package validate

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/Kadumarino/dev-front-end-my-app-order-food/internal/domain"
)

var (
	urlPattern     = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+)`)
	spacePattern   = regexp.MustCompile(`\s+`)
	letterPattern  = regexp.MustCompile(`[a-zA-Z]`)
	digitPattern   = regexp.MustCompile(`\d`)
	namePattern    = regexp.MustCompile(`^[a-zA-ZÀ-ÿ\s]+$`)
	numberPattern  = regexp.MustCompile(`^[a-zA-Z0-9\s/\-]+$`)
	addressPattern = regexp.MustCompile(`^[a-zA-Z0-9À-ÿ\s.,\-/]+$`)
)

// Sanitize strips emoji, URLs and control characters from free text and
// collapses whitespace runs. It is applied to every user-entered field before
// validation and again before message interpolation.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == ' ' || r == '\t' || r == '\n':
			b.WriteRune(r)
		case unicode.IsControl(r):
			// drop control chars, including \r
		case isEmoji(r):
			// drop pictographs and variation selectors
		default:
			b.WriteRune(r)
		}
	}
	out := urlPattern.ReplaceAllString(b.String(), "")
	out = spacePattern.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1F6FF: // pictographs, emoticons, transport
		return true
	case r >= 0x1F900 && r <= 0x1F9FF: // supplemental symbols
		return true
	case r >= 0x1F1E0 && r <= 0x1F1FF: // flags
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
		return true
	case r >= 0xFE00 && r <= 0xFE0F: // variation selectors
		return true
	}
	return false
}

// Digits returns only the decimal digits of s. Phone and CEP rules operate on
// the digit string so display masks never affect validation.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Name requires at least 3 characters of letters, spaces and diacritics.
// Digits anywhere reject the value.
func Name(s string) error {
	s = strings.TrimSpace(s)
	if digitPattern.MatchString(s) {
		return &domain.FieldError{Field: "name", Rule: "must not contain digits"}
	}
	if len([]rune(s)) < 3 {
		return &domain.FieldError{Field: "name", Rule: "at least 3 characters"}
	}
	if !namePattern.MatchString(s) {
		return &domain.FieldError{Field: "name", Rule: "letters and spaces only"}
	}
	return nil
}

// Phone accepts Brazilian numbers: 10 digits (landline) or 11 digits where
// the third digit must be '9' (mobile). Letters reject the value regardless
// of digit count.
func Phone(s string) error {
	if letterPattern.MatchString(s) {
		return &domain.FieldError{Field: "phone", Rule: "must not contain letters"}
	}
	d := Digits(s)
	if len(d) != 10 && len(d) != 11 {
		return &domain.FieldError{Field: "phone", Rule: "10 or 11 digits"}
	}
	if len(d) == 11 && d[2] != '9' {
		return &domain.FieldError{Field: "phone", Rule: "mobile numbers start with 9"}
	}
	return nil
}

// CEP validates the optional postal code: exactly 8 digits when present.
func CEP(s string) error {
	if letterPattern.MatchString(s) {
		return &domain.FieldError{Field: "postal_code", Rule: "must not contain letters"}
	}
	if len(Digits(s)) != 8 {
		return &domain.FieldError{Field: "postal_code", Rule: "8 digits"}
	}
	return nil
}

// Street requires more than one character of address text.
func Street(s string) error {
	s = strings.TrimSpace(s)
	if len([]rune(s)) < 2 {
		return &domain.FieldError{Field: "street", Rule: "incomplete"}
	}
	if !addressPattern.MatchString(s) {
		return &domain.FieldError{Field: "street", Rule: "invalid characters"}
	}
	return nil
}

// Number accepts house numbers, letters and "S/N" for unnumbered addresses.
func Number(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || !numberPattern.MatchString(s) {
		return &domain.FieldError{Field: "number", Rule: "invalid"}
	}
	return nil
}

// Neighborhood rejects digits and requires at least 2 characters.
func Neighborhood(s string) error {
	s = strings.TrimSpace(s)
	if digitPattern.MatchString(s) {
		return &domain.FieldError{Field: "neighborhood", Rule: "must not contain digits"}
	}
	if len([]rune(s)) < 2 {
		return &domain.FieldError{Field: "neighborhood", Rule: "incomplete"}
	}
	return nil
}

// City rejects digits and requires at least 3 characters.
func City(s string) error {
	s = strings.TrimSpace(s)
	if digitPattern.MatchString(s) {
		return &domain.FieldError{Field: "city", Rule: "must not contain digits"}
	}
	if len([]rune(s)) < 3 {
		return &domain.FieldError{Field: "city", Rule: "incomplete"}
	}
	return nil
}

// Profile runs every field rule over a customer profile. The first violation
// is returned; the secondary phone is only checked when present.
func Profile(p *domain.CustomerProfile) error {
	if err := Name(p.Name); err != nil {
		return err
	}
	if err := Phone(p.Phone); err != nil {
		return err
	}
	if p.SecondaryPhone != "" {
		if err := Phone(p.SecondaryPhone); err != nil {
			return &domain.FieldError{Field: "secondary_phone", Rule: err.(*domain.FieldError).Rule}
		}
	}
	if err := Street(p.Address.Street); err != nil {
		return err
	}
	if err := Number(p.Address.Number); err != nil {
		return err
	}
	if err := Neighborhood(p.Address.Neighborhood); err != nil {
		return err
	}
	if err := City(p.Address.City); err != nil {
		return err
	}
	if p.Address.PostalCode != "" {
		if err := CEP(p.Address.PostalCode); err != nil {
			return err
		}
	}
	return nil
}
