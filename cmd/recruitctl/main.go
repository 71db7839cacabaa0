// Command recruitctl is the operator CLI: one-shot imports, source listing and migrations.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
