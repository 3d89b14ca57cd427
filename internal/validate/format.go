package validate

import "strings"

// lowercase connectives in Brazilian proper names
var lowerWords = map[string]bool{
	"de": true, "da": true, "do": true, "dos": true, "das": true, "e": true,
}

// CapitalizeName title-cases each word of a name, keeping Portuguese
// prepositions in lower case ("maria de souza" -> "Maria de Souza").
func CapitalizeName(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		lw := strings.ToLower(w)
		if lowerWords[lw] {
			words[i] = lw
			continue
		}
		r := []rune(lw)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// MaskPhone formats a digit string as (XX) 9XXXX-XXXX or (XX) XXXX-XXXX.
// Inputs that are not 10 or 11 digits are returned unchanged.
func MaskPhone(s string) string {
	d := Digits(s)
	switch len(d) {
	case 11:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	case 10:
		return "(" + d[:2] + ") " + d[2:6] + "-" + d[6:]
	}
	return s
}

// MaskCEP formats an 8-digit postal code as XXXXX-XXX.
func MaskCEP(s string) string {
	d := Digits(s)
	if len(d) != 8 {
		return s
	}
	return d[:5] + "-" + d[5:]
}
