package semver

import (
	"slices"
	"testing"
)

func TestIsConcrete(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1.3.0", true},
		{"7.0.0-beta.2", true},
		{"1.0.0+build.5", true},
		{" 1.2.3 ", true},
		{"^7.0.0", false},
		{"~1.2", false},
		{"1.x", false},
		{"latest", false},
		{"1.2", false},
		{"", false},
		{">=1.0.0 <2.0.0", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := IsConcrete(tt.in); got != tt.want {
				t.Errorf("IsConcrete(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIncPatch(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1.3.0", "1.3.1"},
		{"7.0.9", "7.0.10"},
		{"0.0.0", "0.0.1"},
		{"2.1.0-rc.1", "2.1.0"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := IncPatch(tt.in)
			if err != nil {
				t.Fatalf("IncPatch(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("IncPatch(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	if _, err := IncPatch("^1.0.0"); err == nil {
		t.Error("IncPatch(range) should fail")
	}
}

func TestCaretSatisfaction(t *testing.T) {
	c, err := ParseConstraint(Caret("1.3.0"))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		v    string
		want bool
	}{
		{"1.3.0", true},
		{"1.3.5", true},
		{"1.9.0", true},
		{"1.2.9", false},
		{"2.0.0", false},
		{"1.4.0-beta.1", false},
	}
	for _, tt := range tests {
		if got := Satisfies(MustParseVersion(tt.v), c); got != tt.want {
			t.Errorf("Satisfies(%s, ^1.3.0) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestMaxSatisfying(t *testing.T) {
	published := []string{"6.0.0", "7.0.0", "7.2.1", "7.10.0", "8.0.0", "not-a-version", "7.11.0-alpha.1"}

	tests := []struct {
		rng    string
		want   string
		wantOK bool
	}{
		{"^7.0.0", "7.10.0", true},
		{"~7.2.0", "7.2.1", true},
		{">=6 <7", "6.0.0", true},
		{"7.x", "7.10.0", true},
		{"", "8.0.0", true},
		{"*", "8.0.0", true},
		{"^6.0.0 || ^8.0.0", "8.0.0", true},
		{"^9.0.0", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.rng, func(t *testing.T) {
			c, err := ParseConstraint(tt.rng)
			if err != nil {
				t.Fatalf("ParseConstraint(%q) error: %v", tt.rng, err)
			}
			got, ok := MaxSatisfying(c, published)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("MaxSatisfying(%q) = (%q, %v), want (%q, %v)", tt.rng, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseConstraintInvalid(t *testing.T) {
	if _, err := ParseConstraint("not a range!"); err == nil {
		t.Error("ParseConstraint should reject garbage")
	}
}

func TestSort(t *testing.T) {
	got := Sort([]string{"1.10.0", "1.2.0", "bogus", "1.2.0-rc.1", "0.9.9"})
	want := []string{"0.9.9", "1.2.0-rc.1", "1.2.0", "1.10.0"}
	if !slices.Equal(got, want) {
		t.Errorf("Sort() = %v, want %v", got, want)
	}
}
