//go:build mage
// +build mage

package main

import (
	"github.com/magefile/mage/sh"
)

const serverPkg = "./cmd/signaling-server"

// Build compiles the signaling server binary.
func Build() error {
	return sh.RunV("go", "build", "-o", "bin/signaling-server", serverPkg)
}

// Run starts the signaling server locally.
func Run() error {
	return sh.RunV("go", "run", serverPkg)
}

// Test runs the full test suite with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Vet runs go vet across the module.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}
