package utils

import (
	"fmt"
	"io"
	"os"
)

// Debug tracing is enabled by setting DEBUG_TOYRSA.
var (
	DebugEnabled           = os.Getenv("DEBUG_TOYRSA") != ""
	DebugOutput  io.Writer = os.Stderr
)

// Debugf writes one trace line tagged with component when tracing is enabled.
func Debugf(component, format string, args ...interface{}) {
	if DebugEnabled {
		fmt.Fprintf(DebugOutput, "[toyrsa:"+component+"] "+format+"\n", args...)
	}
}
