package qrcontent

import (
	"errors"
	"testing"
)

func TestRegistryInvariants(t *testing.T) {
	seen := map[string]bool{}
	for _, def := range All() {
		if seen[def.ID] {
			t.Fatalf("duplicate type id %q", def.ID)
		}
		seen[def.ID] = true

		fieldNames := map[string]bool{}
		for _, f := range def.Fields {
			if fieldNames[f.Name] {
				t.Fatalf("type %q: duplicate field %q", def.ID, f.Name)
			}
			fieldNames[f.Name] = true

			if rule, ok := f.Rule.(EnumField); ok {
				found := false
				for _, v := range rule.Values {
					if v == rule.Default {
						found = true
					}
				}
				if !found {
					t.Fatalf("type %q field %q: enum default %q not in value set", def.ID, f.Name, rule.Default)
				}
			}
		}
	}
}

func TestLookupUnknownType(t *testing.T) {
	_, err := Lookup("carrier-pigeon")
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

func TestByCategoryPreservesOrder(t *testing.T) {
	contact := ByCategory(CategoryContact)
	if len(contact) == 0 {
		t.Fatal("expected contact types")
	}

	// Filter results must appear in the same relative order as the catalog.
	pos := map[string]int{}
	for i, def := range All() {
		pos[def.ID] = i
	}
	for i := 1; i < len(contact); i++ {
		if pos[contact[i-1].ID] > pos[contact[i].ID] {
			t.Fatalf("category filter reordered %q and %q", contact[i-1].ID, contact[i].ID)
		}
	}
}

func TestPopularAndProFilters(t *testing.T) {
	for _, def := range Popular() {
		if !def.IsPopular {
			t.Fatalf("Popular returned non-popular type %q", def.ID)
		}
	}
	pro := Pro()
	if len(pro) == 0 {
		t.Fatal("expected at least one pro-gated type")
	}
	for _, def := range pro {
		if !def.IsPro {
			t.Fatalf("Pro returned non-pro type %q", def.ID)
		}
	}
}

// Every registered type must have an explicit encoder branch; a type that
// falls through Encode's default case is a registration bug.
func TestEncoderCoversRegistry(t *testing.T) {
	for _, def := range All() {
		raw := minimalValidInput(def.ID)
		values, err := Validate(def.ID, raw)
		if err != nil {
			t.Fatalf("type %q: minimal input did not validate: %v", def.ID, err)
		}
		if _, err := Encode(def.ID, values); err != nil {
			t.Fatalf("type %q: encode failed: %v", def.ID, err)
		}
	}
}

// minimalValidInput returns just the required fields for each type.
func minimalValidInput(typeID string) map[string]any {
	switch typeID {
	case "url":
		return map[string]any{"url": "example.com"}
	case "text":
		return map[string]any{"text": "hello"}
	case "wifi":
		return map[string]any{"ssid": "MyNetwork"}
	case "email":
		return map[string]any{"email": "a@b.com"}
	case "sms", "phone":
		return map[string]any{"phone": "+15551234567"}
	case "vcard":
		return map[string]any{"firstName": "Jane"}
	case "twitter", "instagram":
		return map[string]any{"username": "someone"}
	case "linkedin":
		return map[string]any{"profile": "https://linkedin.com/in/someone"}
	case "bitcoin":
		return map[string]any{"address": "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2"}
	case "paypal":
		return map[string]any{"username": "someone"}
	default:
		return map[string]any{}
	}
}
