//go:build go1.18

package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseInstanceID verifies parsing never panics and accepted values
// round-trip through String.
func FuzzParseInstanceID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE event_instances;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseInstanceID(input)

		if err == nil {
			roundTrip, err2 := ParseInstanceID(id.String())
			if err2 != nil {
				t.Errorf("valid ID failed round-trip: %v", err2)
			}
			if roundTrip != id {
				t.Error("round-trip changed ID value")
			}
		}

		if !utf8.ValidString(input) && err == nil {
			t.Error("non-UTF8 input was accepted")
		}
	})
}

// FuzzParseAllIDs checks the ID types accept and reject the same inputs.
func FuzzParseAllIDs(f *testing.F) {
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("")
	f.Add("invalid")

	f.Fuzz(func(t *testing.T, input string) {
		_, errOrg := ParseOrgID(input)
		_, errUser := ParseUserID(input)
		_, errTemplate := ParseTemplateID(input)
		_, errInstance := ParseInstanceID(input)
		_, errDocument := ParseDocumentID(input)

		if errOrg == nil {
			if errUser != nil || errTemplate != nil || errInstance != nil || errDocument != nil {
				t.Error("inconsistent parsing across ID types")
			}
		}

		if errOrg != nil {
			if errUser == nil || errTemplate == nil || errInstance == nil || errDocument == nil {
				t.Error("inconsistent rejection across ID types")
			}
		}
	})
}
