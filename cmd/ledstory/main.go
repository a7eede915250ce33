// Command ledstory generates the LED narrative page and its interactive charts.
package main

import (
	"fmt"
	"os"

	"github.com/jiaxingx0718/ledstory/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ledstory:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
