// Package main is the entry point for the ferrule CLI.
package main

import "ferrule.dev/pkg/ferrule/cmd"

func main() {
	cmd.Execute()
}
