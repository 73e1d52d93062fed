// Command licencectl operates a running licences service: trigger lifecycle
// jobs, inspect caseloads and licences, and migrate the database schema.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
