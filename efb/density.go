package efb

import (
	"fmt"
	"sort"
)

// lastUFMPage maps a device density to the last page of its UFM.
var lastUFMPage = map[string]int{
	"7000L": 2045,
	"4000L": 766,
	"2000U": 766,
	"2000L": 638,
	"1200U": 638,
	"1200L": 510,
	"640U":  510,
	"640L":  190,
}

// LastUFMPage returns the index of the last UFM page of a device.
func LastUFMPage(density string) (int, error) {
	page, ok := lastUFMPage[density]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDensity, density)
	}

	return page, nil
}

// Densities lists the known device densities.
func Densities() []string {
	names := make([]string, 0, len(lastUFMPage))
	for name := range lastUFMPage {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
