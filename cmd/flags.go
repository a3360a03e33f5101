package cmd

import "flag"

// newFlagSet creates a flag.FlagSet for a subcommand that reports parse
// errors to the caller instead of calling os.Exit itself, so Run can turn
// them into ExitCodeError.
func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}
