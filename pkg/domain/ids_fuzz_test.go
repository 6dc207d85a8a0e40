package domain

import (
	"testing"

	"github.com/google/uuid"
)

// FuzzParseRegistryID checks the boundary parser never panics and never
// returns both a usable id and an error.
func FuzzParseRegistryID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add(uuid.Nil.String())
	f.Add("not-a-uuid")
	f.Add("550E8400-E29B-41D4-A716-446655440000")

	f.Fuzz(func(t *testing.T, input string) {
		registryID, err := ParseRegistryID(input)
		if err != nil {
			if !registryID.IsNil() {
				t.Errorf("error result must carry the zero id, got %s", registryID)
			}
			return
		}
		if registryID.IsNil() {
			t.Error("successful parse must not return the nil id")
		}
	})
}

// FuzzParseDocumentKind checks kind parsing stays closed over the known set.
func FuzzParseDocumentKind(f *testing.F) {
	f.Add("purchase_order")
	f.Add("reserved")
	f.Add("")
	f.Add("PURCHASE_ORDER")

	f.Fuzz(func(t *testing.T, input string) {
		kind, err := ParseDocumentKind(input)
		if err != nil {
			return
		}
		if _, ok := knownKinds[kind]; !ok {
			t.Errorf("parser accepted unknown kind %q", kind)
		}
	})
}
