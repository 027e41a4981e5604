package cli

import "fmt"

// Subcommand selects the IPC interface of the binary.
const Subcommand = "dbus"

// Mode selects the operation performed by one invocation.
type Mode string

const (
	// ModeHelp prints help text.
	ModeHelp Mode = "-help"
	// ModeMethod invokes a named remote method.
	ModeMethod Mode = "-method"
	// ModeProperty prints the current value of a named property.
	ModeProperty Mode = "-property"
	// ModeListen streams newline-delimited events until terminated.
	ModeListen Mode = "-listen"
)

// BuildArgs constructs the full argv for one invocation of binary.
func BuildArgs(binary string, mode Mode, args ...string) []string {
	argv := make([]string, 0, 3+len(args))
	argv = append(argv, binary, Subcommand, string(mode))

	return append(argv, args...)
}

// Stringify converts method arguments to their command line form.
func Stringify(args []any) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		out = append(out, fmt.Sprint(arg))
	}

	return out
}
