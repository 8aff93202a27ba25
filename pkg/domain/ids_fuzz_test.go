package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseAccountID checks that parsing never panics on arbitrary input and
// that accepted values round-trip unchanged.
func FuzzParseAccountID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE accounts;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseAccountID(input)

		if err == nil {
			roundTrip, err2 := ParseAccountID(id.String())
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

// FuzzParseAllIDs checks every ID type accepts and rejects identically; the
// types share one validation path and must stay in lockstep.
func FuzzParseAllIDs(f *testing.F) {
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("")
	f.Add("invalid")

	f.Fuzz(func(t *testing.T, input string) {
		_, errAccount := ParseAccountID(input)
		_, errParent := ParseParentID(input)
		_, errCoach := ParseCoachID(input)
		_, errPlayer := ParsePlayerID(input)
		_, errReview := ParseReviewID(input)

		if errAccount == nil {
			if errParent != nil || errCoach != nil || errPlayer != nil || errReview != nil {
				t.Error("inconsistent parsing across ID types")
			}
		}
		if errAccount != nil {
			if errParent == nil || errCoach == nil || errPlayer == nil || errReview == nil {
				t.Error("inconsistent rejection across ID types")
			}
		}
	})
}
