package debug

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/signadot/docworker/wire"
)

// Logf writes to stderr, rendering wire payloads as indented JSON.
func Logf(msg string, args ...any) {
	for i := range args {
		a := args[i]
		switch a.(type) {
		case wire.Change, *wire.Change, []wire.Change, *wire.Document, wire.FieldValue, []wire.FieldValue, wire.Failure:
			d, err := json.MarshalIndent(a, "   |", "  ")
			if err != nil {
				args[i] = fmt.Sprintf("%v", a)
				continue
			}
			args[i] = string(d)
		case bool, string, float64, int:

		default:
		}
	}
	fmt.Fprintf(os.Stderr, msg, args...)
}
