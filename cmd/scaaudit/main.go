// Command scaaudit evaluates a declarative security-configuration policy
// against a remote host over SSH.
package main

import (
	"fmt"
	"os"

	"github.com/iiicsti/scaaudit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
