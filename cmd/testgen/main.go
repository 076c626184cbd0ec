// Package main is the entry point for the testgen CLI.
package main

import "github.com/indusense/testgen/cmd"

func main() {
	cmd.Execute()
}
