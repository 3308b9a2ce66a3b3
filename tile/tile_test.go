package tile_test

import (
	"testing"

	"github.com/eak1mov/go-tilemerge/tile"
)

func TestNameValid(t *testing.T) {
	for _, tc := range []struct {
		name tile.Name
		want bool
	}{
		{"", false},
		{"0", true},
		{"21112330", true},
		{"214", false},
		{"2a", false},
	} {
		if got := tc.name.Valid(); got != tc.want {
			t.Errorf("Name(%q).Valid() = %v, want = %v", tc.name, got, tc.want)
		}
	}
}

func TestNameParent(t *testing.T) {
	if got, want := tile.Name("2113").Parent(), tile.Name("211"); got != want {
		t.Errorf("Parent() = %q, want = %q", got, want)
	}
	if got, want := tile.Name("2").Parent(), tile.Name(""); got != want {
		t.Errorf("Parent() = %q, want = %q", got, want)
	}
	if got, want := tile.Name("2113").Level(), 4; got != want {
		t.Errorf("Level() = %v, want = %v", got, want)
	}
}
