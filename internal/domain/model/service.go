package model

// Service is one catalog entry describing a site and its password policy.
// MinLength and MaxLength are nil when the policy sets no bound.
type Service struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	URL               string `json:"url"`
	MinLength         *int   `json:"minLength"`
	MaxLength         *int   `json:"maxLength"`
	AllowedSpecials   string `json:"allowedSpecials"`
	OtherRequirements string `json:"otherRequirements"`
	Notes             string `json:"notes"`
	TwoFactor         bool   `json:"twoFactor"`
	Passkey           bool   `json:"passkey"`
	Category          string `json:"category"`
	Icon              string `json:"icon"`
	Color             string `json:"color"`
}

// CategoryLabel returns the display group of the service. An empty category
// maps to UncategorizedLabel; the stored value is left untouched.
func (s Service) CategoryLabel() string {
	if s.Category == "" {
		return UncategorizedLabel
	}
	return s.Category
}

// Clone returns a deep copy so callers can hand records out without sharing
// the length pointers.
func (s Service) Clone() Service {
	out := s
	if s.MinLength != nil {
		v := *s.MinLength
		out.MinLength = &v
	}
	if s.MaxLength != nil {
		v := *s.MaxLength
		out.MaxLength = &v
	}
	return out
}

// IntPtr is a small helper for building length bounds.
func IntPtr(v int) *int {
	return &v
}
