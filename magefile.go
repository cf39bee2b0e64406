//go:build mage

package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binary   = "fsinfo"
	mainPkg  = "./cmd/fsinfo"
	coverOut = "coverage.out"
)

// Default target to run when none is specified
var Default = Build

// Build builds the fsinfo binary
func Build() error {
	fmt.Println("Building...")
	return sh.Run("go", "build", "-o", binary, mainPkg)
}

// Install installs the binary
func Install() error {
	fmt.Println("Installing...")
	return sh.Run("go", "install", mainPkg)
}

// Test runs all tests with the race detector; the scanner is concurrent
func Test() error {
	fmt.Println("Running tests...")
	return sh.Run("go", "test", "-race", "-coverprofile="+coverOut, "./...")
}

// TestForFail runs the unit tests purely to find out whether any fail
func TestForFail() error {
	fmt.Println("Running unit tests for overall pass/fail...")
	return run(context.Background(), "go", "test", "-timeout=60s", "-failfast", "-shuffle=on", "-race", "./...")
}

// Stress reruns the scanner and resolver tests many times to shake out ordering bugs
func Stress() error {
	fmt.Println("Stressing scanner...")
	return run(context.Background(), "go", "test", "-race", "-count=50", "./pkg/scanner/...", "./pkg/fileinfo/...")
}

// Lint lints the codebase
func Lint() error {
	fmt.Println("Linting...")
	return run(context.Background(), "golangci-lint", "run", "./...")
}

// Fmt formats the code
func Fmt() error {
	fmt.Println("Formatting code...")
	if err := sh.Run("gofmt", "-s", "-w", "."); err != nil {
		return err
	}
	return sh.Run("goimports", "-w", ".")
}

// Check runs all checks (fmt, lint, test)
func Check() {
	mg.SerialDeps(Fmt, Lint, Test)
}

// Demo scans the repository and exports the result to demo.db
func Demo() error {
	mg.Deps(Build)

	bin, err := filepath.Abs(binary)
	if err != nil {
		return err
	}

	return run(context.Background(), bin, "--log-level", "info", "scan", ".", "--plain", "--export", "demo.db")
}

// Clean removes build artifacts
func Clean() error {
	fmt.Println("Cleaning...")
	for _, f := range []string{binary, coverOut, "coverage.html", "demo.db"} {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Coverage generates an HTML coverage report
func Coverage() error {
	mg.Deps(Test)
	fmt.Println("Generating coverage report...")
	return sh.Run("go", "tool", "cover", "-html="+coverOut, "-o", "coverage.html")
}

func run(c context.Context, command string, arg ...string) error {
	cmd := exec.CommandContext(c, command, arg...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}
