// The main package for the identity-crawler executable.
package main

import (
	"github.com/phidi/identity-crawler/cmd"
)

// main defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
