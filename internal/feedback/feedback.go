// Package feedback turns correction vectors into short coaching hints.
//
// Coordinates follow the image convention: x grows to the right, y grows
// downward and z grows toward the camera.
package feedback

import (
	"math"
	"sort"
	"strings"

	"github.com/ayusman/repcoach/internal/geometry"
	"github.com/ayusman/repcoach/internal/pose"
)

// DefaultMinDistance is the correction length below which no hint is given.
const DefaultMinDistance = 30.0

// Hint tells the user how to move one landmark.
type Hint struct {
	Landmark   int      `json:"landmark"`
	Name       string   `json:"name"`
	Directions []string `json:"directions"`
	Distance   float64  `json:"distance"`
	Message    string   `json:"message"`
}

type axisMove struct {
	amount float64
	word   string
}

func directions(c geometry.Point3, minAxis float64) []string {
	moves := make([]axisMove, 0, 3)
	add := func(v float64, pos, neg string) {
		if math.Abs(v) < minAxis {
			return
		}
		word := pos
		if v < 0 {
			word = neg
		}
		moves = append(moves, axisMove{amount: math.Abs(v), word: word})
	}

	add(c.X, "right", "left")
	add(c.Y, "down", "up")
	add(c.Z, "toward the camera", "away from the camera")

	sort.SliceStable(moves, func(i, j int) bool { return moves[i].amount > moves[j].amount })

	words := make([]string, len(moves))
	for i, m := range moves {
		words[i] = m.word
	}
	return words
}

// Hints returns a hint for every landmark whose correction is at least
// minDistance long, largest first. minDistance <= 0 uses DefaultMinDistance.
// Axes contributing less than half of minDistance are not mentioned.
func Hints(corrections [pose.NumLandmarks]geometry.Point3, minDistance float64) []Hint {
	if minDistance <= 0 {
		minDistance = DefaultMinDistance
	}

	var hints []Hint
	for i, c := range corrections {
		d := geometry.Length(c)
		if d < minDistance {
			continue
		}

		dirs := directions(c, minDistance/2)
		if len(dirs) == 0 {
			continue
		}
		hints = append(hints, Hint{
			Landmark:   i,
			Name:       pose.Name(i),
			Directions: dirs,
			Distance:   d,
			Message:    "move " + pose.Name(i) + " " + strings.Join(dirs, " and "),
		})
	}

	sort.SliceStable(hints, func(i, j int) bool { return hints[i].Distance > hints[j].Distance })
	return hints
}

// Top returns at most n hints.
func Top(hints []Hint, n int) []Hint {
	if n < 0 || len(hints) <= n {
		return hints
	}
	return hints[:n]
}
