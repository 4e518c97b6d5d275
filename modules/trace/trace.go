package trace

import (
	"fmt"
	"os"
	"strings"
)

type Debuger interface {
	DbgPrint(format string, args ...any)
}

func NewDebuger(verbose bool) Debuger {
	return &debuger{verbose: verbose}
}

type debuger struct {
	verbose bool
}

func DbgPrint(format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	var buffer strings.Builder
	for _, s := range strings.Split(message, "\n") {
		buffer.WriteString(s)
		buffer.WriteByte('\n')
	}
	_, _ = os.Stderr.WriteString(buffer.String())
}

func (d debuger) DbgPrint(format string, args ...any) {
	if !d.verbose {
		return
	}
	DbgPrint(format, args...)
}

var (
	_ Debuger = &debuger{}
)
