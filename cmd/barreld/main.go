// Command barreld is a small CLI front end for exercising a barrel
// deployment: declaring stores from a config file, opening databases
// through them, and driving reads and writes without an HTTP surface.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
