package message

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"rpitems/internal/codec"
)

func TestParse(t *testing.T) {
	t.Run("give round trip", func(t *testing.T) {
		msgType, fields := Parse(BuildGiveMessage("Bob", "guid-1", "hello", "", 0))
		if msgType != TypeGive {
			t.Fatalf("expected GIVE, got %q", msgType)
		}
		want := []string{"GIVE", "Bob", "guid-1", "hello", "", "0"}
		if !reflect.DeepEqual(fields, want) {
			t.Fatalf("expected %#v, got %#v", want, fields)
		}
	})

	t.Run("empty fields preserved", func(t *testing.T) {
		_, fields := Parse("a^^b")
		if !reflect.DeepEqual(fields, []string{"a", "", "b"}) {
			t.Fatalf("unexpected fields: %#v", fields)
		}
	})

	t.Run("trailing empty fields preserved", func(t *testing.T) {
		_, fields := Parse("SHOW^Bob^g^^")
		if len(fields) != 5 {
			t.Fatalf("expected 5 fields, got %#v", fields)
		}
	})

	t.Run("encoded response types", func(t *testing.T) {
		raw := BuildAcceptMessage("Alice", "guid-9")
		if strings.HasPrefix(raw, "ACCEPT") {
			t.Fatalf("expected accept to be encoded, got %q", raw)
		}
		msgType, fields := Parse(raw)
		if msgType != TypeAccept {
			t.Fatalf("expected ACCEPT, got %q", msgType)
		}
		if !reflect.DeepEqual(fields, []string{"ACCEPT", "Alice", "guid-9"}) {
			t.Fatalf("unexpected fields: %#v", fields)
		}
	})

	t.Run("plain form of encoded type still parses", func(t *testing.T) {
		msgType, fields := Parse("REJECT^Alice^guid-9^no thanks")
		if msgType != TypeReject || DecodeReject(fields).Reason != "no thanks" {
			t.Fatalf("unexpected parse: %q %#v", msgType, fields)
		}
	})

	t.Run("encoded form of plain type still parses", func(t *testing.T) {
		msgType, fields := Parse(codec.EncodeString("GIVE^Bob^g^m^t^7"))
		if msgType != TypeGive || DecodeGive(fields).CustomNumber != 7 {
			t.Fatalf("unexpected parse: %q %#v", msgType, fields)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		msgType, fields := Parse("TELEPORT^Bob^x")
		if Known(msgType) {
			t.Fatalf("expected unknown type, got %q", msgType)
		}
		if msgType != "TELEPORT" || len(fields) != 3 {
			t.Fatalf("unexpected parse: %q %#v", msgType, fields)
		}
	})

	t.Run("sync frames are plain", func(t *testing.T) {
		raw := Build(TypeSyncEnd, "1700000000-12345678")
		if raw != "DB_SYNC_END^1700000000-12345678" {
			t.Fatalf("unexpected frame: %q", raw)
		}
		if msgType, _ := Parse(raw); msgType != TypeSyncEnd {
			t.Fatalf("expected DB_SYNC_END, got %q", msgType)
		}
	})
}

func TestDecode(t *testing.T) {
	t.Run("give", func(t *testing.T) {
		_, fields := Parse(BuildGiveMessage("Bob", "g", "for you", "Bob's copy", 3))
		got := DecodeGive(fields)
		want := Give{Target: "Bob", GUID: "g", CustomMessage: "for you", CustomText: "Bob's copy", CustomNumber: 3}
		if got != want {
			t.Fatalf("expected %#v, got %#v", want, got)
		}
	})

	t.Run("result", func(t *testing.T) {
		_, fields := Parse(BuildResultMessage("req-1", "Alice", "db-1", 1700000000, "0a0b0c0d"))
		got := DecodeResult(fields)
		want := Result{RequestID: "req-1", Sender: "Alice", DatabaseID: "db-1", Version: 1700000000, Checksum: "0a0b0c0d"}
		if got != want {
			t.Fatalf("expected %#v, got %#v", want, got)
		}
	})

	t.Run("short message decodes zero values", func(t *testing.T) {
		got := DecodeGive([]string{"GIVE", "Bob"})
		if got.Target != "Bob" || got.GUID != "" || got.CustomNumber != 0 {
			t.Fatalf("unexpected decode: %#v", got)
		}
	})

	t.Run("non numeric custom number", func(t *testing.T) {
		if got := DecodeShow([]string{"SHOW", "Bob", "g", "", "lots"}); got.CustomNumber != 0 {
			t.Fatalf("expected 0, got %d", got.CustomNumber)
		}
	})
}

func TestRouter(t *testing.T) {
	t.Run("dispatches known types", func(t *testing.T) {
		router := NewRouter()
		var got Give
		router.Handle(TypeGive, func(msgType Type, fields []string) error {
			got = DecodeGive(fields)
			return nil
		})
		handled, err := router.Dispatch(BuildGiveMessage("Bob", "g", "", "", 1))
		if err != nil || !handled {
			t.Fatalf("expected handled without error, got %v %v", handled, err)
		}
		if got.Target != "Bob" || got.CustomNumber != 1 {
			t.Fatalf("unexpected give: %#v", got)
		}
	})

	t.Run("ignores unknown and unhandled types", func(t *testing.T) {
		router := NewRouter()
		for _, raw := range []string{"TELEPORT^x", "", BuildStatusMessage("r", "Bob")} {
			handled, err := router.Dispatch(raw)
			if handled || err != nil {
				t.Fatalf("expected %q to be ignored, got %v %v", raw, handled, err)
			}
		}
	})

	t.Run("wraps handler errors", func(t *testing.T) {
		router := NewRouter()
		boom := errors.New("boom")
		router.Handle(TypeStatus, func(Type, []string) error { return boom })
		_, err := router.Dispatch(BuildStatusMessage("r", "Bob"))
		if !errors.Is(err, boom) {
			t.Fatalf("expected wrapped boom, got %v", err)
		}
	})
}

func TestCheckFields(t *testing.T) {
	if err := CheckFields("Bob", "guid-1", "hello there", ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	err := CheckFields("Bob", "guid-1", "a^b", "")
	if !errors.Is(err, ErrSeparatorInField) {
		t.Fatalf("expected ErrSeparatorInField, got %v", err)
	}
	if !strings.Contains(err.Error(), "field 3") {
		t.Fatalf("expected the offending field position, got %v", err)
	}
}
