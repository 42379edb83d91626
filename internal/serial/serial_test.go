package serial

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"rpitems/internal/item"
)

func sampleItem() item.Item {
	return item.Item{
		GUID:            "1700000000-12345678-0a1b2c3d",
		Name:            "Letter",
		Icon:            "inv_misc_note_01",
		Tooltip:         "A sealed letter",
		Content:         "Dear Sir",
		ContentTemplate: "Dear {custom-text}",
		InitialCounter:  3,
		Actions: []item.Action{
			{
				ID:    "read_aloud",
				Label: "Read aloud",
				Methods: []item.Method{
					{Type: item.MethodSay, Params: map[string]string{"text": "Dear Sir"}},
					{Type: item.MethodConsume, Params: map[string]string{"amount": "1"}},
				},
				Conditions: item.Conditions{CounterGreaterThanZero: true},
			},
			{
				ID:         "burn",
				Label:      "Burn",
				Methods:    []item.Method{{Type: item.MethodRead}},
				Conditions: item.Conditions{CustomTextEmpty: true, CounterGreaterThanZero: true},
			},
		},
	}
}

func TestItemRoundTrip(t *testing.T) {
	t.Run("full item", func(t *testing.T) {
		original := sampleItem()
		got, err := DeserializeItem(SerializeItem(original))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !reflect.DeepEqual(got, original) {
			t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", got, original)
		}
	})

	t.Run("delimiters in every string field", func(t *testing.T) {
		tricky := []string{
			FieldSeparator,
			ItemSeparator,
			SectionSeparator,
			`\`,
			`\\|~|`,
			"ends with |~",
			"x|~|~|y",
			`a\`,
			"[]:;|~&=,",
			"^^#",
		}
		for _, value := range tricky {
			original := item.Item{
				GUID:            value,
				Name:            value,
				Icon:            value,
				Tooltip:         value,
				Content:         value,
				ContentTemplate: value,
				Actions: []item.Action{{
					ID:      value,
					Label:   value,
					Methods: []item.Method{{Type: item.MethodType(value), Params: map[string]string{value: value}}},
				}},
			}
			got, err := DeserializeItem(SerializeItem(original))
			if err != nil {
				t.Fatalf("value %q: expected no error, got %v", value, err)
			}
			if !reflect.DeepEqual(got, original) {
				t.Fatalf("value %q: round trip mismatch:\n got %#v\nwant %#v", value, got, original)
			}
		}
	})

	t.Run("name equal to field separator", func(t *testing.T) {
		original := item.Item{GUID: "g", Name: "|~|"}
		got, err := DeserializeItem(SerializeItem(original))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Name != "|~|" {
			t.Fatalf("expected name |~|, got %q", got.Name)
		}
	})

	t.Run("zero actions serialize to empty blob", func(t *testing.T) {
		record := SerializeItem(item.Item{GUID: "g", Name: "Plain"})
		fields := strings.Split(record, FieldSeparator)
		if len(fields) != itemFieldCount {
			t.Fatalf("expected %d fields, got %d", itemFieldCount, len(fields))
		}
		if fields[fieldActions] != "" {
			t.Fatalf("expected empty actions blob, got %q", fields[fieldActions])
		}
	})
}

func TestDeserializeItemCompatibility(t *testing.T) {
	t.Run("fewer trailing fields default", func(t *testing.T) {
		got, err := DeserializeItem("g1|~|Old Letter|~|icon|~|tip|~|body")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Name != "Old Letter" || got.Content != "body" {
			t.Fatalf("unexpected item: %#v", got)
		}
		if got.Actions != nil || got.ContentTemplate != "" || got.InitialCounter != 0 {
			t.Fatalf("expected defaults for missing fields, got %#v", got)
		}
	})

	t.Run("extra trailing fields ignored", func(t *testing.T) {
		record := SerializeItem(sampleItem()) + FieldSeparator + "future" + FieldSeparator + "more"
		got, err := DeserializeItem(record)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !reflect.DeepEqual(got, sampleItem()) {
			t.Fatalf("unexpected item: %#v", got)
		}
	})

	t.Run("too few fields", func(t *testing.T) {
		if _, err := DeserializeItem("only-guid"); !errors.Is(err, ErrMalformed) {
			t.Fatalf("expected ErrMalformed, got %v", err)
		}
		if _, err := DeserializeItem(""); !errors.Is(err, ErrMalformed) {
			t.Fatalf("expected ErrMalformed, got %v", err)
		}
	})

	t.Run("bad counter", func(t *testing.T) {
		record := "g|~|n|~||~||~||~||~||~|many"
		if _, err := DeserializeItem(record); !errors.Is(err, ErrMalformed) {
			t.Fatalf("expected ErrMalformed, got %v", err)
		}
	})

	t.Run("unknown condition names ignored", func(t *testing.T) {
		record := "g|~|n|~||~||~||~|use:Use:[]:customTextEmpty,glowing"
		got, err := DeserializeItem(record)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got.Actions) != 1 || !got.Actions[0].Conditions.CustomTextEmpty || got.Actions[0].Conditions.CounterGreaterThanZero {
			t.Fatalf("unexpected actions: %#v", got.Actions)
		}
	})
}

func TestCollectionRoundTrip(t *testing.T) {
	t.Run("items and metadata", func(t *testing.T) {
		c := item.NewCollection()
		c.Metadata = item.Metadata{ID: "1700000000-11112222", Name: "Session #~# 3", Version: 1700000123, Checksum: "0abc1234"}
		c.Items[4] = sampleItem()
		c.Items[9] = item.Item{GUID: "g2", Name: "Key ^~^ of doom"}

		got, err := DeserializeCollection(SerializeCollection(c))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Metadata != c.Metadata {
			t.Fatalf("metadata mismatch: got %#v want %#v", got.Metadata, c.Metadata)
		}
		if got.Len() != 2 {
			t.Fatalf("expected 2 items, got %d", got.Len())
		}
		for _, want := range c.Items {
			_, found, ok := got.FindGUID(want.GUID)
			if !ok {
				t.Fatalf("item %s missing", want.GUID)
			}
			if !reflect.DeepEqual(found, want) {
				t.Fatalf("item mismatch:\n got %#v\nwant %#v", found, want)
			}
		}
	})

	t.Run("empty collection", func(t *testing.T) {
		c := item.NewCollection()
		c.Metadata = item.Metadata{ID: "id", Name: "Empty", Version: 1, Checksum: "00000000"}
		serialized := SerializeCollection(c)
		if !strings.HasSuffix(serialized, SectionSeparator) {
			t.Fatalf("expected trailing section separator, got %q", serialized)
		}
		got, err := DeserializeCollection(serialized)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Items == nil || got.Len() != 0 {
			t.Fatalf("expected empty item map, got %#v", got.Items)
		}
	})

	t.Run("malformed item is skipped", func(t *testing.T) {
		payload := "id|~|name|~|1|~|sum" + SectionSeparator +
			SerializeItem(item.Item{GUID: "a", Name: "A"}) + ItemSeparator +
			"broken" + ItemSeparator +
			SerializeItem(item.Item{GUID: "c", Name: "C"})
		got, skipped, err := DeserializeCollectionSkipped(payload)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if skipped != 1 {
			t.Fatalf("expected 1 skipped, got %d", skipped)
		}
		if got.Len() != 2 {
			t.Fatalf("expected 2 items, got %d", got.Len())
		}
		if got.Items[1].GUID != "a" || got.Items[3].GUID != "c" {
			t.Fatalf("unexpected slots: %#v", got.Items)
		}
	})

	t.Run("missing section separator", func(t *testing.T) {
		if _, err := DeserializeCollection("id|~|name|~|1|~|sum"); !errors.Is(err, ErrMalformed) {
			t.Fatalf("expected ErrMalformed, got %v", err)
		}
	})

	t.Run("bad version", func(t *testing.T) {
		if _, err := DeserializeCollection("id|~|name|~|soon|~|sum" + SectionSeparator); !errors.Is(err, ErrMalformed) {
			t.Fatalf("expected ErrMalformed, got %v", err)
		}
	})
}

func TestSplitEscaped(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		sep      string
		expected []string
	}{
		{name: "plain", input: "a|~|b|~|c", sep: "|~|", expected: []string{"a", "b", "c"}},
		{name: "empty fields kept", input: "a|~||~|c", sep: "|~|", expected: []string{"a", "", "c"}},
		{name: "escaped separator", input: `a\|~|b|~|c`, sep: "|~|", expected: []string{`a\|~|b`, "c"}},
		{name: "escaped backslash before separator", input: `a\\|~|b`, sep: "|~|", expected: []string{`a\\`, "b"}},
		{name: "empty input", input: "", sep: "|~|", expected: []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitEscaped(tt.input, tt.sep)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("splitEscaped(%q) = %#v, want %#v", tt.input, got, tt.expected)
			}
		})
	}
}
