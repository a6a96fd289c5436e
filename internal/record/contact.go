package record

// Field keys used in backend payloads.
const (
	FieldName        = "name"
	FieldPhoneNumber = "phoneNumber"
)

// Contact is a single entry in the materialized contact list.
//
// ID is assigned by the backend and never changes. Name and PhoneNumber may be
// empty when the backend payload did not carry them.
type Contact struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
}

// Fields is a partial or full write payload, keyed by field name.
type Fields map[string]string

// ContactFields builds the full payload for a contact.
func ContactFields(name, phoneNumber string) Fields {
	return Fields{
		FieldName:        name,
		FieldPhoneNumber: phoneNumber,
	}
}

// Fields returns the writable fields of c (everything except the ID).
func (c Contact) Fields() Fields {
	return ContactFields(c.Name, c.PhoneNumber)
}

// Values converts f to the loosely typed map backends store.
func (f Fields) Values() map[string]any {
	out := make(map[string]any, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Clone returns a copy of list. A nil list clones to an empty, non-nil slice
// so observers never have to distinguish "no records" from "not loaded".
func Clone(list []Contact) []Contact {
	out := make([]Contact, len(list))
	copy(out, list)
	return out
}

// ToMap converts a contact to a plain map for canonical serialization.
func (c Contact) ToMap() map[string]any {
	return map[string]any{
		"id":             c.ID,
		FieldName:        c.Name,
		FieldPhoneNumber: c.PhoneNumber,
	}
}

// ListToAny converts a list to []any for canonical serialization.
func ListToAny(list []Contact) []any {
	out := make([]any, len(list))
	for i, c := range list {
		out[i] = c.ToMap()
	}
	return out
}
