package domain

// Address is where the order is delivered. PostalCode is optional; Number
// accepts "S/N" for unnumbered addresses.
type Address struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	PostalCode   string `json:"postal_code,omitempty"`
	Reference    string `json:"reference,omitempty"`
}

// CustomerProfile holds delivery data. Name and address persist across
// sessions; phone numbers are session-scoped only and are stripped before the
// profile reaches durable storage — "where to deliver" is durable, "how to
// reach someone right now" is not.
type CustomerProfile struct {
	Name           string  `json:"name"`
	Phone          string  `json:"phone,omitempty"`
	SecondaryPhone string  `json:"secondary_phone,omitempty"`
	Address        Address `json:"address"`
}

// WithoutPhones returns a copy safe for durable storage.
func (p CustomerProfile) WithoutPhones() CustomerProfile {
	p.Phone = ""
	p.SecondaryPhone = ""
	return p
}
