// Package main is the entry point for the quarry CLI application.
package main

import (
	"log"

	"github.com/quarry-build/quarry/cmd"
)

var version = "dev"

func main() {
	cmd.SetVersion(version)
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
