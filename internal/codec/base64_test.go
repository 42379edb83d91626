package codec

import (
	"bytes"
	"encoding/base64"
	"math/rand/v2"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "", expected: ""},
		{input: "M", expected: "TQ=="},
		{input: "Ma", expected: "TWE="},
		{input: "Man", expected: "TWFu"},
		{input: "hello world", expected: "aGVsbG8gd29ybGQ="},
		{input: "a|~|b", expected: "YXx+fGI="},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := EncodeString(tt.input); got != tt.expected {
				t.Errorf("EncodeString(%q) = %q, want %q", tt.input, got, tt.expected)
			}
			if got := DecodeString(tt.expected); got != tt.input {
				t.Errorf("DecodeString(%q) = %q, want %q", tt.expected, got, tt.input)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	t.Run("delimiters and control bytes", func(t *testing.T) {
		inputs := [][]byte{
			[]byte("|"),
			[]byte("^"),
			[]byte("#"),
			[]byte(`\`),
			{0},
			{0, 0, 0, 0},
			[]byte("a^^b|~|c#~#d^~^e\\f\x00g"),
			{0xff, 0xfe, 0xfd},
		}
		for _, input := range inputs {
			if got := Decode(Encode(input)); !bytes.Equal(got, input) {
				t.Fatalf("round trip of %v produced %v", input, got)
			}
		}
	})

	t.Run("matches standard library", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(1, 2))
		for i := 0; i < 200; i++ {
			data := make([]byte, rng.IntN(64))
			for j := range data {
				data[j] = byte(rng.IntN(256))
			}
			encoded := Encode(data)
			if want := base64.StdEncoding.EncodeToString(data); encoded != want {
				t.Fatalf("Encode(%v) = %q, want %q", data, encoded, want)
			}
			if got := Decode(encoded); !bytes.Equal(got, data) {
				t.Fatalf("Decode(%q) = %v, want %v", encoded, got, data)
			}
		}
	})
}

func TestDecodeLenient(t *testing.T) {
	t.Run("out of alphabet counts as zero", func(t *testing.T) {
		got := Decode("TW!u")
		want := Decode("TWAu")
		if !bytes.Equal(got, want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("padding emits nothing", func(t *testing.T) {
		if got := Decode("TQ=="); len(got) != 1 || got[0] != 'M' {
			t.Fatalf("expected single byte M, got %v", got)
		}
		if got := Decode("===="); len(got) != 0 {
			t.Fatalf("expected no output, got %v", got)
		}
	})

	t.Run("short final group", func(t *testing.T) {
		if got := DecodeString("TWE"); got != "Ma" {
			t.Fatalf("expected Ma, got %q", got)
		}
	})
}

func TestLooksEncoded(t *testing.T) {
	if !LooksEncoded("TWFu") {
		t.Fatalf("expected TWFu to look encoded")
	}
	if LooksEncoded("GIVE^Bob") {
		t.Fatalf("expected plain message to not look encoded")
	}
	if LooksEncoded("") {
		t.Fatalf("expected empty string to not look encoded")
	}
}
