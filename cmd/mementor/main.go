// Command mementor is the CLI and hook entrypoint for the memory engine.
package main

import "github.com/fenv-org/mementor/internal/cli"

func main() {
	cli.Run()
}
