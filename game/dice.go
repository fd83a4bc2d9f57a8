package game

import (
	"math/rand/v2"
	"time"
)

// Dice rolls a fair integer in [1, faces].
type Dice interface {
	Roll(faces int) int
}

type randomDice struct {
	r *rand.Rand
}

// NewDice returns a PCG-backed die. A zero seed picks one from the clock.
func NewDice(seed uint64) Dice {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &randomDice{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (d *randomDice) Roll(faces int) int {
	if faces < 1 {
		return 1
	}
	return d.r.IntN(faces) + 1
}

// FixedDice replays Values in a loop, clamped to the die.
type FixedDice struct {
	Values []int
	next   int
}

func (d *FixedDice) Roll(faces int) int {
	if len(d.Values) == 0 {
		return 1
	}
	v := d.Values[d.next%len(d.Values)]
	d.next++
	if v < 1 {
		v = 1
	}
	if faces > 0 && v > faces {
		v = faces
	}
	return v
}
