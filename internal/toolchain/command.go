package toolchain

import (
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Command is one external tool invocation.
type Command struct {
	// Path is the resolved executable.
	Path string
	// Args excludes the executable itself.
	Args []string
	// Dir is the working directory; empty inherits the parent's.
	Dir string
}

// Argv returns the executable followed by its arguments.
func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.Path)
	return append(argv, c.Args...)
}

// String renders the command as a line that can be pasted into a shell.
func (c Command) String() string {
	argv := c.Argv()
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		quoted[i] = quoteArg(arg)
	}
	return strings.Join(quoted, " ")
}

func quoteArg(arg string) string {
	q, err := syntax.Quote(arg, syntax.LangBash)
	if err != nil {
		// Not representable in bash (e.g. a NUL byte).
		return strconv.Quote(arg)
	}
	return q
}
