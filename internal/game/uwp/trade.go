package uwp

import "sort"

// Code is a two-letter trade classification.
type Code string

// Trade classification codes.
const (
	Agricultural    Code = "Ag"
	Asteroid        Code = "As"
	Barren          Code = "Ba"
	Desert          Code = "De"
	FluidOceans     Code = "Fl"
	Garden          Code = "Ga"
	HighPopulation  Code = "Hi"
	HighTech        Code = "Ht"
	IceCapped       Code = "Ic"
	Industrial      Code = "In"
	LowPopulation   Code = "Lo"
	LowTech         Code = "Lt"
	NonAgricultural Code = "Na"
	NonIndustrial   Code = "Ni"
	Poor            Code = "Po"
	Rich            Code = "Ri"
	Vacuum          Code = "Va"
	WaterWorld      Code = "Wa"
)

var descriptions = map[Code]string{
	Agricultural:    "Agricultural",
	Asteroid:        "Asteroid",
	Barren:          "Barren",
	Desert:          "Desert",
	FluidOceans:     "Fluid Oceans",
	Garden:          "Garden",
	HighPopulation:  "High Population",
	HighTech:        "High Tech",
	IceCapped:       "Ice-Capped",
	Industrial:      "Industrial",
	LowPopulation:   "Low Population",
	LowTech:         "Low Tech",
	NonAgricultural: "Non-Agricultural",
	NonIndustrial:   "Non-Industrial",
	Poor:            "Poor",
	Rich:            "Rich",
	Vacuum:          "Vacuum",
	WaterWorld:      "Water World",
}

// Description returns the long name of the code.
func (c Code) Description() string {
	if d, ok := descriptions[c]; ok {
		return d
	}
	return string(c)
}

func between(v, lo, hi int) bool { return v >= lo && v <= hi }

func oneOf(v int, set ...int) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}

// rules maps every code to the UWP predicate that grants it.
var rules = map[Code]func(p Profile) bool{
	Agricultural: func(p Profile) bool {
		return between(p.Atmosphere, 4, 9) && between(p.Hydrographics, 4, 8) && between(p.Population, 5, 7)
	},
	Asteroid: func(p Profile) bool {
		return p.Size == 0 && p.Atmosphere == 0 && p.Hydrographics == 0
	},
	Barren: func(p Profile) bool {
		return p.Population == 0 && p.Government == 0 && p.LawLevel == 0
	},
	Desert: func(p Profile) bool {
		return p.Atmosphere >= 2 && p.Hydrographics == 0
	},
	FluidOceans: func(p Profile) bool {
		return p.Atmosphere >= 10 && p.Hydrographics >= 1
	},
	Garden: func(p Profile) bool {
		return between(p.Size, 6, 8) && oneOf(p.Atmosphere, 5, 6, 8) && between(p.Hydrographics, 5, 7)
	},
	HighPopulation: func(p Profile) bool {
		return p.Population >= 9
	},
	HighTech: func(p Profile) bool {
		return p.TechLevel >= 12
	},
	IceCapped: func(p Profile) bool {
		return between(p.Atmosphere, 0, 1) && p.Hydrographics >= 1
	},
	Industrial: func(p Profile) bool {
		return oneOf(p.Atmosphere, 0, 1, 2, 4, 7, 9, 10, 11, 12) && p.Population >= 9
	},
	LowPopulation: func(p Profile) bool {
		return between(p.Population, 1, 3)
	},
	LowTech: func(p Profile) bool {
		return p.Population >= 1 && p.TechLevel <= 5
	},
	NonAgricultural: func(p Profile) bool {
		return between(p.Atmosphere, 0, 3) && between(p.Hydrographics, 0, 3) && p.Population >= 6
	},
	NonIndustrial: func(p Profile) bool {
		return between(p.Population, 4, 6)
	},
	Poor: func(p Profile) bool {
		return between(p.Atmosphere, 2, 5) && between(p.Hydrographics, 0, 3)
	},
	Rich: func(p Profile) bool {
		return oneOf(p.Atmosphere, 6, 8) && between(p.Population, 6, 8) && between(p.Government, 4, 9)
	},
	Vacuum: func(p Profile) bool {
		return p.Atmosphere == 0 && p.Hydrographics == 0
	},
	WaterWorld: func(p Profile) bool {
		return p.Hydrographics >= 10
	},
}

// TradeClassifications returns every code whose rule matches p, sorted.
//
// Postcondition: The result has no duplicates and is never nil.
func TradeClassifications(p Profile) []Code {
	codes := make([]Code, 0, 4)
	for code, rule := range rules {
		if rule(p) {
			codes = append(codes, code)
		}
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// HasCode reports whether p carries the given trade classification.
func HasCode(p Profile, c Code) bool {
	rule, ok := rules[c]
	return ok && rule(p)
}
