package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	str := `["a.jpg","b.png"]`

	tests := []struct {
		name  string
		input any
		want  []string
	}{
		{"nil", nil, []string{}},
		{"native strings", []string{"a.jpg", "b.png"}, []string{"a.jpg", "b.png"}},
		{"native any", []any{"a.jpg", nil, 3.0, "b.png"}, []string{"a.jpg", "3", "b.png"}},
		{"json array string", `["P2/before_images/x.jpg"]`, []string{"P2/before_images/x.jpg"}},
		{"json array with spaces", `  [ "a.jpg" , "b.png" ] `, []string{"a.jpg", "b.png"}},
		{"json array drops non scalars", `["a.jpg", null, {"k":1}, ["x"]]`, []string{"a.jpg"}},
		{"json null", "null", []string{}},
		{"empty json array", "[]", []string{}},
		{"double encoded", `"[\"a.jpg\"]"`, []string{"a.jpg"}},
		{"comma string", "a.jpg, b.png,,  c.webp ", []string{"a.jpg", "b.png", "c.webp"}},
		{"single bare value", "a.jpg", []string{"a.jpg"}},
		{"empty string", "   ", []string{}},
		{"bytes", []byte(`["a.jpg"]`), []string{"a.jpg"}},
		{"string pointer", &str, []string{"a.jpg", "b.png"}},
		{"nil string pointer", (*string)(nil), []string{}},
		{"broken json falls back to commas", `["a.jpg", "b`, []string{`["a.jpg"`, `"b`}},
		{"json object string", `{"a":"x.jpg","b":"y.jpg"}`, []string{}},
		{"json number string", "42", []string{}},
		{"json bool string", "true", []string{}},
		{"unsupported type", 42, []string{}},
		{"map", map[string]any{"a": 1}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []any{
		nil,
		[]string{"a.jpg"},
		[]any{"a.jpg", "b.png"},
		`["a.jpg","b.png"]`,
		"a.jpg,b.png",
		"",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %#v", in)
	}
}

func TestNormalize_DefensiveCopy(t *testing.T) {
	in := []string{"a.jpg"}
	out := Normalize(in)
	out[0] = "changed"
	assert.Equal(t, "a.jpg", in[0])
}
