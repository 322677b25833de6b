//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
// If not set, running mage will list available targets
var Default = Build

// Build compiles every command into ./bin
func Build() error {
	mg.Deps(BuildChanmap, BuildMapmaker, BuildWirereadout)
	fmt.Println("Compilation finished")
	return nil
}

// goCommand runs the go tool with the HDF5 cgo flags of the environment.
func goCommand(args ...string) *exec.Cmd {
	ldflags := os.Getenv("CGO_LDFLAGS")
	cflags := os.Getenv("CGO_CFLAGS")
	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", ldflags),
		fmt.Sprintf("CGO_CFLAGS=%s", cflags))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

func BuildChanmap() error {
	fmt.Println("Building chanmap executable...")
	return goCommand("build", "-o", "./bin/chanmap", "./chanmap").Run()
}

func BuildMapmaker() error {
	fmt.Println("Building mapmaker executable...")
	return goCommand("build", "-o", "./bin/mapmaker", "./mapmaker").Run()
}

func BuildWirereadout() error {
	fmt.Println("Building wirereadout executable...")
	return goCommand("build", "-o", "./bin/wirereadout", "./wirereadout").Run()
}

// Test runs the tests of every package
func Test() error {
	fmt.Println("Running tests...")
	return goCommand("test", "./...").Run()
}
