package decompose

import (
	"reflect"
	"strconv"
	"strings"
	"testing"
)

func TestParseResponse_Items(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"items object", `{"items": ["x", "y", "z"]}`, []string{"x", "y", "z"}},
		{"subtasks object", `{"subtasks": ["a", "b"]}`, []string{"a", "b"}},
		{"items preferred over subtasks", `{"items": ["a"], "subtasks": ["b"]}`, []string{"a"}},
		{"null items uses subtasks", `{"items": null, "subtasks": ["b"]}`, []string{"b"}},
		{"bare array", `["one", "two"]`, []string{"one", "two"}},
		{"empty items", `{"items": []}`, []string{}},
		{"empty items uses subtasks", `{"items": [], "subtasks": ["a", "b"]}`, []string{"a", "b"}},
		{"empty items with null subtasks", `{"items": [], "subtasks": null}`, []string{}},
		{"bracket in prose before object", `Sure [note]: {"items": ["a"]}`, []string{"a"}},
		{"brace in prose before array", `Use {curly} style: ["a", "b"]`, []string{"a", "b"}},
		{"code fence", "```json\n{\"items\": [\"walk\"]}\n```", []string{"walk"}},
		{"prose around", "Here you go:\n[\"walk\", \"rest\"]\nGood luck!", []string{"walk", "rest"}},
		{"numbers coerced", `{"items": [1, 2.5, 1e2]}`, []string{"1", "2.5", "1e2"}},
		{"mixed values coerced", `["a", true, null, {"k": "v"}]`, []string{"a", "true", "null", `{"k":"v"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ParseResponse(tt.text)
			if resp.Kind != KindItems {
				t.Fatalf("Kind = %v (%s), want items", resp.Kind, resp.Reason)
			}
			if !reflect.DeepEqual(resp.Items, tt.want) {
				t.Errorf("Items = %q, want %q", resp.Items, tt.want)
			}
		})
	}
}

func TestParseResponse_Fallback(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"plain prose", "I cannot help with that."},
		{"malformed", `{"items": ["a", }`},
		{"missing keys", `{"steps": ["a"]}`},
		{"items not array", `{"items": "walk"}`},
		{"subtasks not array", `{"subtasks": {"a": 1}}`},
		{"closer before opener", `] nothing [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ParseResponse(tt.text)
			if resp.Kind != KindFallback {
				t.Fatalf("Kind = %v, want fallback (items %q)", resp.Kind, resp.Items)
			}
			if resp.Reason == "" {
				t.Error("fallback should carry a reason")
			}
		})
	}
}

func TestParseResponse_CapsAtMaxItems(t *testing.T) {
	parts := make([]string, 15)
	for i := range parts {
		parts[i] = strconv.Quote("step " + strconv.Itoa(i))
	}
	text := `{"items": [` + strings.Join(parts, ",") + `]}`

	resp := ParseResponse(text)
	if resp.Kind != KindItems {
		t.Fatalf("Kind = %v, want items", resp.Kind)
	}
	if len(resp.Items) != MaxItems {
		t.Fatalf("len = %d, want %d", len(resp.Items), MaxItems)
	}
	if resp.Items[0] != "step 0" || resp.Items[9] != "step 9" {
		t.Errorf("kept wrong items: %q", resp.Items)
	}
}

func TestResponseKind_String(t *testing.T) {
	if KindItems.String() != "items" || KindFallback.String() != "fallback" {
		t.Errorf("unexpected kind names %q %q", KindItems, KindFallback)
	}
}
