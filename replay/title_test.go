package replay

import (
	"errors"
	"testing"

	esf "github.com/logicossoftware/go-esf"
)

func TestParseGameTitle(t *testing.T) {
	cases := []struct {
		title   string
		variant esf.Variant
		want    GameTitle
	}{
		{
			"Shogun2:TotalWar(2.1.0)(Build(6000) retail) Changelist(412345)",
			esf.VariantF,
			GameTitle{Name: "Shogun2", Version: "2.1.0", Build: 6000, Changelist: 412345},
		},
		{
			"Shogun2:TotalWar(1.0)(Build(10)) Changelist(20)",
			esf.VariantA,
			GameTitle{Name: "Shogun2", Version: "1.0", Build: 10, Changelist: 20},
		},
		{
			"Empire: Total War 1.5 (Build 6543 retail) Changelist: 98765",
			esf.VariantE,
			GameTitle{Name: "Empire", Version: "1.5", Build: 6543, Changelist: 98765},
		},
	}
	for _, c := range cases {
		got, err := ParseGameTitle(c.title, c.variant)
		if err != nil {
			t.Fatalf("%q: %v", c.title, err)
		}
		if got != c.want {
			t.Fatalf("%q: got %+v", c.title, got)
		}
	}
}

func TestParseGameTitle_Errors(t *testing.T) {
	// Inline layout under a pooled variant does not match.
	_, err := ParseGameTitle("Empire: Total War 1.5 (Build 6543 retail) Changelist: 98765", esf.VariantF)
	if !errors.Is(err, ErrBadTitle) {
		t.Fatalf("got %v", err)
	}
	_, err = ParseGameTitle("anything", esf.VariantRO)
	if !errors.Is(err, esf.ErrUnsupportedVariant) {
		t.Fatalf("got %v", err)
	}
	// Digits too long for int.
	_, err = ParseGameTitle("X:TotalWar(1)(Build(99999999999999999999)) Changelist(1)", esf.VariantF)
	if !errors.Is(err, ErrBadTitle) {
		t.Fatalf("got %v", err)
	}
}

func TestParseGameTitle_EmptyNumbers(t *testing.T) {
	got, err := ParseGameTitle("X:TotalWar()(Build()) Changelist()", esf.VariantF)
	if err != nil {
		t.Fatal(err)
	}
	if got != (GameTitle{Name: "X"}) {
		t.Fatalf("got %+v", got)
	}
}
