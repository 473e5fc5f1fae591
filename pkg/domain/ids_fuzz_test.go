package domain

import (
	"testing"

	"github.com/google/uuid"
)

// FuzzParseIDs checks that every typed parser agrees, never panics, and only
// accepts input that round-trips to a canonical non-nil UUID.
func FuzzParseIDs(f *testing.F) {
	for _, seed := range []string{
		"",
		"550e8400-e29b-41d4-a716-446655440000",
		"550E8400-E29B-41D4-A716-446655440000",
		"urn:uuid:550e8400-e29b-41d4-a716-446655440000",
		"{550e8400-e29b-41d4-a716-446655440000}",
		uuid.Nil.String(),
		"550e8400-e29b-41d4-a716-446655440000\x00",
		"id_card",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		user, errUser := ParseUserID(input)
		_, errDoc := ParseDocumentID(input)
		_, errForm := ParseFormID(input)
		_, errScore := ParseScoreID(input)

		accepted := errUser == nil
		if (errDoc == nil) != accepted || (errForm == nil) != accepted || (errScore == nil) != accepted {
			t.Fatalf("parsers disagree on %q", input)
		}
		if !accepted {
			return
		}
		if user.IsNil() {
			t.Fatalf("nil id accepted from %q", input)
		}
		again, err := ParseUserID(user.String())
		if err != nil || again != user {
			t.Fatalf("canonical form of %q does not round-trip", input)
		}
	})
}
