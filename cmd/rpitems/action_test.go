package main

import (
	"testing"

	"rpitems/internal/item"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    item.Method
		wantErr bool
	}{
		{name: "bare type", input: "read", want: item.Method{Type: "read"}},
		{name: "params", input: "create_item:guid=abc,counter=2", want: item.Method{Type: "create_item", Params: map[string]string{"guid": "abc", "counter": "2"}}},
		{name: "value keeps spaces", input: "say:text=Hello there", want: item.Method{Type: "say", Params: map[string]string{"text": "Hello there"}}},
		{name: "missing type", input: ":text=x", wantErr: true},
		{name: "bad pair", input: "say:text", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseMethod(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Type != tt.want.Type || len(got.Params) != len(tt.want.Params) {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
			for k, v := range tt.want.Params {
				if got.Params[k] != v {
					t.Fatalf("expected param %s=%q, got %q", k, v, got.Params[k])
				}
			}
		})
	}
}

func TestFormatMethod(t *testing.T) {
	m := item.Method{Type: "create_item", Params: map[string]string{"guid": "abc", "counter": "2"}}
	if got := formatMethod(m); got != "create_item:counter=2,guid=abc" {
		t.Fatalf("unexpected format %q", got)
	}
	if got := formatMethod(item.Method{Type: "read"}); got != "read" {
		t.Fatalf("unexpected format %q", got)
	}
}
