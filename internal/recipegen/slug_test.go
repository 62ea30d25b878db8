package recipegen

import "testing"

func TestSlugify(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name  string
		title string
		want  string
	}{
		{name: "diacritics", title: "Šaltibarščiai su bulvėmis", want: "saltibarsciai-su-bulvemis"},
		{name: "mixed_case", title: "Cepelinai Žemaitiškai", want: "cepelinai-zemaitiskai"},
		{name: "punctuation", title: "Kugelis (bulvių plokštainis)!", want: "kugelis-bulviu-plokstainis"},
		{name: "digits", title: "5 minučių desertas", want: "5-minuciu-desertas"},
		{name: "collapse_hyphens", title: "a  --  b", want: "a-b"},
		{name: "empty", title: "  ", want: "receptas"},
		{name: "only_symbols", title: "!!!", want: "receptas"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Slugify(tc.title); got != tc.want {
				t.Fatalf("Slugify(%q) = %q, want %q", tc.title, got, tc.want)
			}
		})
	}
}
