// Command randloop simulates a randomized recurring loop on a musical
// transport and reports, logs, or records its fires.
package main

import (
	"github.com/sarchlab/randloop/randloop/cmd"
	"github.com/tebeka/atexit"
)

func main() {
	if err := cmd.Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
