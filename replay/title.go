package replay

import (
	"fmt"
	"regexp"
	"strconv"

	esf "github.com/logicossoftware/go-esf"
)

// GameTitle is the parsed form of the title string stored in EMPIRE_REPLAY.
type GameTitle struct {
	Name       string
	Version    string
	Build      int
	Changelist int
}

var (
	// Pooled variants, e.g. "Shogun2:TotalWar(1.1.0)(Build(1234) x) Changelist(5678)".
	titlePooled = regexp.MustCompile(`^([a-z|A-Z|\d]*)\:TotalWar\(([0-9|\.]*)\)\(.*Build\(([0-9]*)\).*\)\sChangelist\(([0-9]*)\)$`)
	// Inline variant, e.g. "Empire: Total War 1.5 (Build 1234 x) Changelist: 5678".
	titleInline = regexp.MustCompile(`^([a-z|A-Z|\d]*)\:\sTotal\sWar\s([0-9|\.]*)\s\(.*Build\s([0-9]*).*\)\sChangelist\:\s([0-9]*)$`)
)

// ParseGameTitle parses a game title in the layout used by variant v.
func ParseGameTitle(title string, v esf.Variant) (GameTitle, error) {
	var re *regexp.Regexp
	switch v {
	case esf.VariantA, esf.VariantF:
		re = titlePooled
	case esf.VariantE:
		re = titleInline
	default:
		return GameTitle{}, fmt.Errorf("%w: %s", esf.ErrUnsupportedVariant, v)
	}
	m := re.FindStringSubmatch(title)
	if m == nil {
		return GameTitle{}, fmt.Errorf("%w: %q", ErrBadTitle, title)
	}
	gt := GameTitle{Name: m[1], Version: m[2]}
	var err error
	if gt.Build, err = atoi(m[3]); err != nil {
		return GameTitle{}, fmt.Errorf("%w: build: %v", ErrBadTitle, err)
	}
	if gt.Changelist, err = atoi(m[4]); err != nil {
		return GameTitle{}, fmt.Errorf("%w: changelist: %v", ErrBadTitle, err)
	}
	return gt, nil
}

// atoi treats an empty match as zero.
func atoi(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
