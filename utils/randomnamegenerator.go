package utils

import (
	"fmt"

	"github.com/Pallinder/go-randomdata"
)

// RandomNameGenerator hands out distinct names for generated bones and
// float channels. Names come from randomdata, so seeding it with
// randomdata.CustomRand makes the sequence reproducible.
type RandomNameGenerator struct {
	used map[string]int
}

func (g *RandomNameGenerator) RandomName() string {
	if g.used == nil {
		g.used = make(map[string]int)
	}
	name := randomdata.SillyName()
	n := g.used[name]
	g.used[name] = n + 1
	if n > 0 {
		return fmt.Sprintf("%s_%d", name, n)
	}
	return name
}
