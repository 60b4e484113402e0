package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Optional .env in the working directory. Existing variables win, so
	// a .env cannot shadow the real environment.
	_ = godotenv.Load()

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	os.Exit(runMain(os.Args, DefaultEnv()))
}

// runMain dispatches to the requested command and returns its exit code.
// Separated from main for testability.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd := args[1]
	switch {
	case cmd == "convert":
		return runConvertCmd(args[2:], env)
	case cmd == "doctor":
		return runDoctorCmd(args[2:], env)
	case cmd == "version":
		fmt.Fprintf(env.Stdout, "svg2png %s\n", Version)
		return ExitSuccess
	case cmd == "help":
		runHelp(args[2:], env)
		return ExitSuccess
	case cmd == "completion":
		if err := runCompletion(args[2:], env); err != nil {
			fmt.Fprintln(env.Stderr, err)
			return exitCodeFor(err)
		}
		return ExitSuccess
	case looksLikeSVG(cmd):
		// Bare file argument, kept for muscle memory from v0.
		fmt.Fprintln(env.Stderr, "DEPRECATED: pass files to 'svg2png convert'; bare file arguments will be removed in a future release")
		return runConvertCmd(args[1:], env)
	default:
		fmt.Fprintf(env.Stderr, "unknown command: %s\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}
}

// isCommand reports whether s names a known command.
func isCommand(s string) bool {
	switch s {
	case "convert", "doctor", "version", "help", "completion":
		return true
	}
	return false
}

// looksLikeSVG reports whether s looks like an SVG file path.
func looksLikeSVG(s string) bool {
	return strings.HasSuffix(s, ".svg")
}
