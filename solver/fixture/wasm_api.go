//go:build js && wasm

package fixture

import (
	"fmt"
	"strings"
	"syscall/js"
)

// RunAndShowResults lowers the fixture text in args[0], runs its queries and
// returns one line per result, or the reason the fixture could not be lowered
func RunAndShowResults(_ js.Value, args []js.Value) (ret any) {
	defer func() {
		if r := recover(); r != nil {
			ret = "solver panicked: " + fmt.Sprint(r)
		}
	}()

	f, err := Parse(strings.NewReader(args[0].String()))
	if err != nil {
		return fmt.Sprintf("the fixture could not be read:\n\n%s", err)
	}
	w, err := f.Lower()
	if err != nil {
		return fmt.Sprintf("the fixture has the following errors:\n\n%s", err)
	}
	sb := strings.Builder{}
	for _, r := range w.Run() {
		sb.WriteString(r.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
