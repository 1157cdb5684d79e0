// Command formulac compiles formulas to query IR from the command line.
//
//	formulac compile --rule boolean --scope scope.yaml "contains([Name], 'a')"
//	formulac format --scope scope.yaml '["+", ["field", 1, null], 2]'
//	formulac functions --type predicate
package main

import (
	"context"
	"os"
)

func main() {
	code := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	os.Exit(code)
}
