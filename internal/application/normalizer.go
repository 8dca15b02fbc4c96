package application

import (
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ericfisherdev/pwcatalog/internal/domain/model"
)

// Policy selects which records Normalize accepts.
type Policy struct {
	// RequireMinLength rejects records without a positive minLength. When
	// false, a non-positive minLength is dropped to "no minimum" instead.
	RequireMinLength bool
}

var (
	// PolicyEditable is used by the editable catalog for both form
	// submissions and bulk import.
	PolicyEditable = Policy{RequireMinLength: true}

	// PolicyViewer is used by read-only sources.
	PolicyViewer = Policy{}
)

// IDTaken reports whether id is already used in the target collection.
type IDTaken func(id string) bool

// Normalize converts a loosely-typed record (decoded JSON, a parsed text
// line, or a form submission) into a canonical Service. It returns a
// *model.ValidationError when the record violates policy.
//
// Normalize is idempotent: feeding its output back in yields the same record,
// including the id as long as that id is not reported as taken.
func Normalize(raw map[string]any, policy Policy, taken IDTaken) (model.Service, error) {
	svc := model.Service{
		Name:              stringField(raw, "name"),
		URL:               stringField(raw, "url"),
		MinLength:         intField(raw, "minLength", "min"),
		MaxLength:         intField(raw, "maxLength", "max"),
		AllowedSpecials:   stringField(raw, "allowedSpecials"),
		OtherRequirements: stringField(raw, "otherRequirements"),
		Notes:             stringField(raw, "notes"),
		TwoFactor:         truthy(lookup(raw, "twoFactor")),
		Passkey:           truthy(lookup(raw, "passkey")),
		Category:          stringField(raw, "category"),
		Icon:              stringField(raw, "icon"),
		Color:             stringField(raw, "color"),
	}

	if svc.Name == "" {
		return model.Service{}, &model.ValidationError{
			Reason:  model.ReasonMissingName,
			Message: "Please enter a service name.",
		}
	}

	if svc.MinLength != nil && *svc.MinLength < 1 {
		svc.MinLength = nil
		if policy.RequireMinLength {
			return model.Service{}, &model.ValidationError{
				Reason:  model.ReasonInvalidMinLength,
				Message: "Please enter a valid minimum length (at least 1).",
			}
		}
	}
	if svc.MinLength == nil && policy.RequireMinLength {
		return model.Service{}, &model.ValidationError{
			Reason:  model.ReasonInvalidMinLength,
			Message: "Please enter a valid minimum length (at least 1).",
		}
	}

	if svc.MinLength != nil && svc.MaxLength != nil && *svc.MaxLength < *svc.MinLength {
		return model.Service{}, &model.ValidationError{
			Reason:  model.ReasonMaxBelowMin,
			Message: "Maximum length must not be smaller than minimum length.",
		}
	}

	svc.ID = stringField(raw, "id")
	if svc.ID == "" || (taken != nil && taken(svc.ID)) {
		svc.ID = newID(taken)
	}

	return svc, nil
}

// ParseForm adapts an HTML form submission into the raw shape Normalize
// expects. Checkboxes are true when present with any non-empty value.
func ParseForm(values url.Values) map[string]any {
	raw := make(map[string]any, 12)
	for _, key := range []string{
		"id", "name", "url", "minLength", "maxLength", "allowedSpecials",
		"otherRequirements", "notes", "category", "icon", "color",
	} {
		if values.Has(key) {
			raw[key] = values.Get(key)
		}
	}
	raw["twoFactor"] = values.Get("twoFactor") != ""
	raw["passkey"] = values.Get("passkey") != ""
	return raw
}

// newID returns a UUID not reported as taken. Uniqueness is only guaranteed
// within the collection that taken describes.
func newID(taken IDTaken) string {
	for {
		id := uuid.NewString()
		if taken == nil || !taken(id) {
			return id
		}
	}
}

// lookup returns the value of the first key present in raw.
func lookup(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			return v
		}
	}
	return nil
}

func stringField(raw map[string]any, keys ...string) string {
	s, ok := lookup(raw, keys...).(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func intField(raw map[string]any, keys ...string) *int {
	return toInt(lookup(raw, keys...))
}

// toInt accepts finite numbers and numeric strings, truncating toward zero.
// Finite values beyond the int range saturate. Everything else means
// "absent".
func toInt(v any) *int {
	var f float64
	switch n := v.(type) {
	case int:
		return &n
	case int32:
		return model.IntPtr(int(n))
	case int64:
		return model.IntPtr(int(n))
	case float32:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	f = math.Trunc(f)
	switch {
	case f >= float64(math.MaxInt):
		return model.IntPtr(math.MaxInt)
	case f <= float64(math.MinInt):
		return model.IntPtr(math.MinInt)
	}
	return model.IntPtr(int(f))
}

// truthy mirrors JavaScript truthiness for decoded JSON values.
func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		return b != ""
	case int:
		return b != 0
	case int64:
		return b != 0
	case float64:
		return b != 0 && !math.IsNaN(b)
	case json.Number:
		f, err := b.Float64()
		return err != nil || (f != 0 && !math.IsNaN(f))
	default:
		return true
	}
}
