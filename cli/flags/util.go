package flags

import (
	"flag"
	"strings"
)

// eachName calls fn for every comma-separated flag name (long and short).
func eachName(longName string, fn func(string)) {
	for _, name := range strings.Split(longName, ",") {
		fn(strings.TrimSpace(name))
	}
}

// usageLine formats flag help the way urfave/cli does for value flags:
// "--long value, -s value" followed by a tab and the usage.
func usageLine(longName, usage string) string {
	var names []string
	eachName(longName, func(name string) {
		dash := "--"
		if len(name) == 1 {
			dash = "-"
		}
		names = append(names, dash+name+" value")
	})
	return strings.Join(names, ", ") + "\t" + usage
}

// applyVar registers v under every flag name.
func applyVar(set *flag.FlagSet, longName, usage string, v flag.Value) {
	eachName(longName, func(name string) {
		set.Var(v, name, usage)
	})
}
