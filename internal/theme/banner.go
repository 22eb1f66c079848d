package theme

import (
	"fmt"
)

// Banner returns the CLI banner.
func Banner() string {
	const cyan = "\033[36m"
	const yellow = "\033[33m"
	const reset = "\033[0m"

	return "" +
		cyan + "  ┌─┬─┬─┬─┬─┬─┬─┐\n" + reset +
		cyan + "  │M│T│W│T│F│" + reset + yellow + "S│S" + reset + cyan + "│" + reset + "  BIZCAL\n" +
		cyan + "  └─┴─┴─┴─┴─┴─┴─┘\n" + reset +
		"   next business hours, resolved\n"
}

// PrintBanner prints the banner to stdout.
func PrintBanner() {
	fmt.Print(Banner())
}
