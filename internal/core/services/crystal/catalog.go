// Package crystal labels records with crystallographic symmetry. Symmetry
// computation itself is delegated to an external analyzer; this package only
// holds the static space-group tables and the glue that tolerates a missing
// or failing analyzer.
package crystal

import (
	"sort"
	"strings"
)

// Crystal systems
const (
	Triclinic    = "triclinic"
	Monoclinic   = "monoclinic"
	Orthorhombic = "orthorhombic"
	Tetragonal   = "tetragonal"
	Trigonal     = "trigonal"
	Hexagonal    = "hexagonal"
	Cubic        = "cubic"
)

type systemRange struct {
	last   int
	system string
}

// Catalog holds the space-group tables. Construct it once and pass it to
// consumers.
type Catalog struct {
	systems []systemRange
	symbols map[string]int
}

// NewCatalog builds the space-group tables
func NewCatalog() *Catalog {
	c := &Catalog{
		systems: []systemRange{
			{2, Triclinic},
			{15, Monoclinic},
			{74, Orthorhombic},
			{142, Tetragonal},
			{167, Trigonal},
			{194, Hexagonal},
			{230, Cubic},
		},
		symbols: make(map[string]int),
	}

	for symbol, number := range hermannMauguin {
		c.symbols[normalizeSymbol(symbol)] = number
	}

	return c
}

// CrystalSystem maps a space-group number (1..230) to its crystal system
func (c *Catalog) CrystalSystem(spaceGroup int) (string, bool) {
	if spaceGroup < 1 || spaceGroup > 230 {
		return "", false
	}
	i := sort.Search(len(c.systems), func(i int) bool {
		return c.systems[i].last >= spaceGroup
	})
	return c.systems[i].system, true
}

// SpaceGroupNumber looks up a Hermann-Mauguin symbol. Spacing and case are
// ignored, so "P 21/c" and "p21/c" match.
func (c *Catalog) SpaceGroupNumber(symbol string) (int, bool) {
	n, ok := c.symbols[normalizeSymbol(symbol)]
	return n, ok
}

func normalizeSymbol(symbol string) string {
	symbol = strings.Trim(strings.TrimSpace(symbol), `'"`)
	symbol = strings.ReplaceAll(symbol, " ", "")
	symbol = strings.ReplaceAll(symbol, "_", "")
	return strings.ToLower(symbol)
}

var hermannMauguin = map[string]int{
	"P 1":        1,
	"P -1":       2,
	"P 2":        3,
	"P 21":       4,
	"C 2":        5,
	"P m":        6,
	"P c":        7,
	"C m":        8,
	"C c":        9,
	"P 2/m":      10,
	"P 21/m":     11,
	"C 2/m":      12,
	"P 2/c":      13,
	"P 21/c":     14,
	"P 21/n":     14,
	"C 2/c":      15,
	"P 21 21 21": 19,
	"C m c 21":   36,
	"P b c a":    61,
	"P n m a":    62,
	"C m c m":    63,
	"C m c a":    64,
	"F d d d":    70,
	"I m m m":    71,
	"I 4/m":      87,
	"I 41/a":     88,
	"P 4/m m m":  123,
	"P 4/n m m":  129,
	"P 42/m n m": 136,
	"I 4/m m m":  139,
	"I 41/a m d": 141,
	"P 3":        143,
	"R 3":        146,
	"P -3":       147,
	"R -3":       148,
	"P 3 2 1":    150,
	"R 3 m":      160,
	"R 3 c":      161,
	"P -3 m 1":   164,
	"R -3 m":     166,
	"R -3 c":     167,
	"P 6":        168,
	"P 63":       173,
	"P 6/m":      175,
	"P 63/m":     176,
	"P 6 2 2":    177,
	"P 63 m c":   186,
	"P -6 m 2":   187,
	"P 6/m m m":  191,
	"P 63/m m c": 194,
	"P 2 3":      195,
	"F 2 3":      196,
	"P a -3":     205,
	"I a -3":     206,
	"P 4 3 2":    207,
	"P -4 3 m":   215,
	"F -4 3 m":   216,
	"I -4 3 m":   217,
	"P m -3 m":   221,
	"P n -3 m":   224,
	"F m -3 m":   225,
	"F d -3 m":   227,
	"I m -3 m":   229,
	"I a -3 d":   230,
}
