package enrollment

import (
	"regexp"
	"strings"
)

// romanRegex extracts a standalone roman numeral (I-X) from a cycle name.
var romanRegex = regexp.MustCompile(`\b(I{1,3}|IV|V|VI{0,3}|IX|X)\b`)

var romanToInt = map[string]int{
	"I": 1, "II": 2, "III": 3, "IV": 4, "V": 5,
	"VI": 6, "VII": 7, "VIII": 8, "IX": 9, "X": 10,
}

// CicloRank derives a cycle's sequence position from its name, eg
// "Ciclo III" -> 3. Names without a roman numeral rank 0: such cycles
// are outside the sequential chain (electives, leveling courses).
func CicloRank(nombre string) int {
	m := romanRegex.FindString(strings.ToUpper(nombre))
	if m == "" {
		return 0
	}
	return romanToInt[m]
}
