package strutil

import (
	"reflect"
	"testing"
)

func TestSplitList(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: []string{}},
		{name: "single", input: "nfs-common", want: []string{"nfs-common"}},
		{name: "keeps_order", input: "b,a,c", want: []string{"b", "a", "c"}},
		{name: "blank_entries", input: " a, ,b,,", want: []string{"a", "b"}},
		{name: "duplicates", input: "a,a", want: []string{"a", "a"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SplitList(tc.input)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %#v, got %#v", tc.want, got)
			}
		})
	}
}

func TestShellArg(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{input: "", want: "''"},
		{input: "/srv/nfs", want: "/srv/nfs"},
		{input: "10.0.0.1:/srv/nfs", want: "10.0.0.1:/srv/nfs"},
		{input: "rw,sync", want: "rw,sync"},
		{input: "/srv/my share", want: "'/srv/my share'"},
		{input: "*(rw,sync)", want: "'*(rw,sync)'"},
		{input: "it's", want: `'it'"'"'s'`},
	}

	for _, tc := range cases {
		if got := ShellArg(tc.input); got != tc.want {
			t.Errorf("ShellArg(%q): expected %q, got %q", tc.input, tc.want, got)
		}
	}
}
