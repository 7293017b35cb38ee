// Package prompt handles the two points in a run where a human may need to
// be asked something: a missing target password, and confirmation before
// the first elevated probe goes out.
package prompt

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// IsInteractive reports whether stdin is a terminal a human could answer.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Password reads a password from the controlling terminal without echoing
// it, prefixed with the target descriptor it is for. Returns an error if
// stdin is not a terminal; callers should check IsInteractive first and
// fail the run otherwise rather than blocking on a pipe.
func Password(target string) (string, error) {
	fmt.Fprintf(os.Stderr, "Password for %s: ", target)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

// ConfirmElevation asks the operator to confirm that probes against target
// may run under sudo before the first elevated probe of a run executes.
// A non-interactive session is denied rather than silently escalated.
func ConfirmElevation(target string) bool {
	if !IsInteractive() {
		return false
	}

	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintf(os.Stderr, "This run will escalate privileges (sudo) on %s.\n", target)
	fmt.Fprint(os.Stderr, "Proceed with elevated probes? [y/N]: ")

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}
