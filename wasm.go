//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/cottand/tsolve/solver/fixture"
)

func main() {
	js.Global().Set("RunFixture", js.FuncOf(fixture.RunAndShowResults))

	// wait indefinitely so that Go does not terminate execution
	// and the function remains available
	<-make(chan struct{})
}
