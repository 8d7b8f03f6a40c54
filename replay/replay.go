// Package replay extracts the battle summary held in ESF replay files: the
// game title, the battlefield map and the players of each alliance.
//
// Records are located by tag name rather than by position, so small layout
// differences between game versions do not matter as long as the named
// records are present.
package replay

import (
	"errors"
	"fmt"
	"strings"

	esf "github.com/logicossoftware/go-esf"
)

var (
	ErrBadTitle         = errors.New("replay: malformed game title")
	ErrMissingRecord    = errors.New("replay: missing record")
	ErrUnexpectedLayout = errors.New("replay: unexpected layout")
)

// Tag names read by Summarize.
const (
	TagBattleReplay   = "BATTLE_REPLAY"
	TagEmpireReplay   = "EMPIRE_REPLAY"
	TagSetupInfo      = "BATTLE_SETUP_INFO"
	TagSetupFaction   = "BATTLE_SETUP_FACTION"
	TagResultAlliance = "BATTLE_RESULT_ALLIANCE"
	TagResultArmy     = "BATTLE_RESULT_ARMY"
)

// Player is one army of an alliance. Region is the raw scalar value stored
// for the player's region.
type Player struct {
	Name   string
	Region any
}

// Summary is the battle information of a replay. MapID is the raw
// battlefield map value, or nil when the setup record has none of the known
// layouts. MapSub is the second-to-last segment of the battlefield path.
type Summary struct {
	Variant   esf.Variant
	RawTitle  string
	Title     GameTitle
	MapID     any
	MapSub    string
	Alliances [][]Player
}

// body is one record body: a Record, or one element of a RecordArray.
type body struct {
	name     string
	values   []esf.Node
	children []esf.Node
}

// find returns every body named name under nodes, without descending into
// a match.
func find(doc *esf.Document, nodes []esf.Node, name string) []body {
	var out []body
	esf.Walk(nodes, func(n esf.Node) bool {
		switch v := n.(type) {
		case *esf.Record:
			if v.Name(doc) == name {
				out = append(out, body{name: name, values: v.Values, children: v.Children})
				return false
			}
		case *esf.RecordArray:
			if v.Name(doc) == name {
				for _, g := range v.Elements {
					out = append(out, body{name: name, values: g.Values, children: g.Children})
				}
				return false
			}
		}
		return true
	})
	return out
}

func first(doc *esf.Document, nodes []esf.Node, name string) (body, error) {
	found := find(doc, nodes, name)
	if len(found) == 0 {
		return body{}, fmt.Errorf("%w: %s", ErrMissingRecord, name)
	}
	return found[0], nil
}

func (b body) value(i int) (any, error) {
	if i < 0 || i >= len(b.values) {
		return nil, fmt.Errorf("%w: %s has no value %d", ErrUnexpectedLayout, b.name, i)
	}
	s, ok := b.values[i].(*esf.Scalar)
	if !ok {
		return nil, fmt.Errorf("%w: %s value %d is not a scalar", ErrUnexpectedLayout, b.name, i)
	}
	return s.Value, nil
}

func (b body) str(i int) (string, error) {
	v, err := b.value(i)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s value %d is %T, not a string", ErrUnexpectedLayout, b.name, i, v)
	}
	return s, nil
}

// Summarize reads the battle summary from a decoded replay.
func Summarize(doc *esf.Document) (*Summary, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrMissingRecord)
	}
	s := &Summary{Variant: doc.Codec.Variant}
	br, err := first(doc, doc.Nodes, TagBattleReplay)
	if err != nil {
		return nil, err
	}
	top := br.children

	emp, err := first(doc, top, TagEmpireReplay)
	if err != nil {
		return nil, err
	}
	if s.RawTitle, err = emp.str(0); err != nil {
		return nil, err
	}
	if s.Title, err = ParseGameTitle(s.RawTitle, s.Variant); err != nil {
		return nil, err
	}

	info, err := first(doc, top, TagSetupInfo)
	if err != nil {
		return nil, err
	}
	path, err := info.str(0)
	if err != nil {
		return nil, err
	}
	s.MapSub = mapSub(path)
	s.MapID = mapID(info, s.Variant, s.Title.Name)

	for _, alliance := range find(doc, top, TagResultAlliance) {
		var team []Player
		for _, army := range find(doc, alliance.children, TagResultArmy) {
			p, err := player(doc, army, s.Variant)
			if err != nil {
				return nil, err
			}
			team = append(team, p)
		}
		s.Alliances = append(s.Alliances, team)
	}
	return s, nil
}

func mapSub(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}

// mapID picks the map value from the setup record. Its position depends on
// the game and, for Napoleon, on the record length.
func mapID(info body, v esf.Variant, game string) any {
	n := len(info.values)
	i := -1
	switch v {
	case esf.VariantA, esf.VariantF:
		i = n - 5
	case esf.VariantE:
		switch {
		case game == "Empire":
			i = 26
		case game == "Napoleon" && n == 33:
			i = n - 5
		case game == "Napoleon" && n == 34:
			i = n - 6
		}
	}
	val, err := info.value(i)
	if err != nil {
		return nil
	}
	return val
}

// player reads one army. Inline-string replays store the region and name as
// the first two values; pooled replays store the name first and keep the
// region in a nested faction record.
func player(doc *esf.Document, army body, v esf.Variant) (Player, error) {
	var p Player
	var err error
	if v == esf.VariantE {
		if p.Region, err = army.value(0); err != nil {
			return Player{}, err
		}
		p.Name, err = army.str(1)
		return p, err
	}
	if p.Name, err = army.str(0); err != nil {
		return Player{}, err
	}
	faction, err := first(doc, army.children, TagSetupFaction)
	if err != nil {
		return Player{}, err
	}
	p.Region, err = faction.value(0)
	return p, err
}
