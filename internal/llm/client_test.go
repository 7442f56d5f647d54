package llm

import "testing"

func TestCleanJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare object",
			in:   `{"a": 1}`,
			want: `{"a": 1}`,
		},
		{
			name: "fenced with language label",
			in:   "```json\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "fenced without label",
			in:   "```\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "surrounding prose",
			in:   "Here is the result:\n{\"a\": 1}\nHope that helps!",
			want: `{"a": 1}`,
		},
		{
			name: "array payload",
			in:   "```json\n[1, 2, 3]\n```",
			want: `[1, 2, 3]`,
		},
		{
			name: "leading json label only",
			in:   "json {\"a\": 1}",
			want: `{"a": 1}`,
		},
		{
			name: "whitespace padding",
			in:   "  \n\t{\"a\": 1}  \n",
			want: `{"a": 1}`,
		},
		{
			name: "no json at all",
			in:   "sorry, I cannot help with that",
			want: "sorry, I cannot help with that",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanJSON(tc.in); got != tc.want {
				t.Errorf("CleanJSON(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCleanJSON_NestedBraces(t *testing.T) {
	in := "```json\n{\"outer\": {\"inner\": true}}\n```"
	want := `{"outer": {"inner": true}}`
	if got := CleanJSON(in); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
