package debug

import (
	"fmt"
	"os"
	"strconv"

	"github.com/goccy/go-json"
)

type debug struct {
	Record bool
	Apply  bool
	Route  bool
	Verify bool
	Rules  bool
}

var d *debug

func init() {
	d = &debug{}
	Reload()
}

// Reload rereads the DOCWORKER_DEBUG_* environment.
func Reload() {
	d.Record = boolEnv("DOCWORKER_DEBUG_RECORD")
	d.Apply = boolEnv("DOCWORKER_DEBUG_APPLY")
	d.Route = boolEnv("DOCWORKER_DEBUG_ROUTE")
	d.Verify = boolEnv("DOCWORKER_DEBUG_VERIFY")
	d.Rules = boolEnv("DOCWORKER_DEBUG_RULES")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Record() bool {
	return d.Record
}
func Apply() bool {
	return d.Apply
}
func Route() bool {
	return d.Route
}

// Verify enables replaying each recorded change log against a copy of the
// base document and comparing the outcome.
func Verify() bool {
	return d.Verify
}

func Rules() bool {
	return d.Rules
}

func LogAny(v any) {
	d, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", v)
		return
	}
	os.Stderr.Write(d)
	os.Stderr.Write([]byte{'\n'})
}
