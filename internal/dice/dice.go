// Package dice implements tabletop dice expressions: NdX+M, with optional
// advantage or disadvantage on single d20 rolls.
package dice

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
)

// Mode selects how a d20 check is rolled.
type Mode int

const (
	ModeNormal Mode = iota
	ModeAdvantage
	ModeDisadvantage
)

func (m Mode) String() string {
	switch m {
	case ModeAdvantage:
		return "advantage"
	case ModeDisadvantage:
		return "disadvantage"
	default:
		return "normal"
	}
}

// Spec is a parsed dice expression.
type Spec struct {
	Count    int
	Sides    int
	Modifier int
	Mode     Mode
}

// Roll is the outcome of evaluating a Spec.
type Roll struct {
	Spec     Spec
	Results  []int // kept dice, in roll order
	Dropped  int   // the discarded die under advantage/disadvantage, 0 if none
	Total    int
	Critical bool // natural 20 on a d20 check
	Fumble   bool // natural 1 on a d20 check
}

var specRe = regexp.MustCompile(`^(\d*)d(\d+)([+-]\d+)?$`)

// Parse reads expressions like "d20", "3d6", "2d8+4", "d20-1". Whitespace is
// ignored.
func Parse(expr string) (Spec, error) {
	s := strings.ToLower(strings.ReplaceAll(expr, " ", ""))
	m := specRe.FindStringSubmatch(s)
	if m == nil {
		return Spec{}, fmt.Errorf("bad dice expression %q", expr)
	}

	spec := Spec{Count: 1}
	if m[1] != "" {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			return Spec{}, fmt.Errorf("bad dice count in %q", expr)
		}
		spec.Count = n
	}
	sides, err := strconv.Atoi(m[2])
	if err != nil || sides < 2 {
		return Spec{}, fmt.Errorf("bad die size in %q", expr)
	}
	spec.Sides = sides
	if m[3] != "" {
		mod, err := strconv.Atoi(m[3])
		if err != nil {
			return Spec{}, fmt.Errorf("bad modifier in %q", expr)
		}
		spec.Modifier = mod
	}
	if spec.Count > 100 {
		return Spec{}, fmt.Errorf("too many dice in %q", expr)
	}
	return spec, nil
}

func (s Spec) String() string {
	out := fmt.Sprintf("%dd%d", s.Count, s.Sides)
	if s.Modifier > 0 {
		out += fmt.Sprintf("+%d", s.Modifier)
	} else if s.Modifier < 0 {
		out += strconv.Itoa(s.Modifier)
	}
	switch s.Mode {
	case ModeAdvantage:
		out += " (adv)"
	case ModeDisadvantage:
		out += " (dis)"
	}
	return out
}

// Roller evaluates specs with a source of randomness. The zero value is not
// usable; construct with New.
type Roller struct {
	rng *rand.Rand
}

// New returns a roller seeded from src.
func New(src rand.Source) *Roller {
	return &Roller{rng: rand.New(src)}
}

// Roll evaluates the spec. Advantage and disadvantage only apply when the
// spec is a single d20; otherwise the mode is ignored.
func (r *Roller) Roll(spec Spec) Roll {
	out := Roll{Spec: spec}

	if spec.Mode != ModeNormal && spec.Count == 1 && spec.Sides == 20 {
		a := r.die(20)
		b := r.die(20)
		kept, dropped := a, b
		if spec.Mode == ModeAdvantage && b > a ||
			spec.Mode == ModeDisadvantage && b < a {
			kept, dropped = b, a
		}
		out.Results = []int{kept}
		out.Dropped = dropped
		out.Total = kept + spec.Modifier
		out.Critical = kept == 20
		out.Fumble = kept == 1
		return out
	}

	out.Results = make([]int, 0, spec.Count)
	sum := 0
	for i := 0; i < spec.Count; i++ {
		v := r.die(spec.Sides)
		out.Results = append(out.Results, v)
		sum += v
	}
	out.Total = sum + spec.Modifier
	if spec.Count == 1 && spec.Sides == 20 {
		out.Critical = out.Results[0] == 20
		out.Fumble = out.Results[0] == 1
	}
	return out
}

func (r *Roller) die(sides int) int {
	return r.rng.Intn(sides) + 1
}
