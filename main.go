// The main package for the contentgen executable.
package main

import (
	"github.com/coroscristianos/contentgen/cmd"
)

// main defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
