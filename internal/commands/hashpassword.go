// Package commands implements the pinmap subcommands other than the server.
package commands

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/MrSnakeDoc/pinmap/internal/auth"
)

// HashPassword handles the hash-password subcommand. It prompts twice for the
// admin password and prints the line to put in the environment.
func HashPassword(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("hash-password", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cost := fs.Int("cost", bcrypt.DefaultCost, "bcrypt cost factor")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pinmap hash-password [OPTIONS]\n\n")
		fmt.Fprintf(stderr, "Prints a bcrypt hash for PINMAP_ADMIN_PASSWORD_HASH.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	read := passwordReader(stdin, stderr)

	password, err := read("Enter password:   ")
	if err != nil {
		return fmt.Errorf("error reading password: %w", err)
	}
	if password == "" {
		return errors.New("password cannot be empty")
	}

	confirm, err := read("Confirm password: ")
	if err != nil {
		return fmt.Errorf("error reading password confirmation: %w", err)
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	hash, err := auth.HashPassword(password, *cost)
	if err != nil {
		return err
	}

	// Single quotes keep "$" literal for both shells and .env files.
	fmt.Fprintf(stdout, "PINMAP_ADMIN_PASSWORD_HASH='%s'\n", hash)
	return nil
}

// passwordReader returns a prompt function. Terminals get hidden input,
// anything else (pipes, tests) is read line by line.
func passwordReader(stdin io.Reader, prompt io.Writer) func(string) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return func(label string) (string, error) {
			fmt.Fprint(prompt, label)
			b, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(prompt)
			return string(b), err
		}
	}

	sc := bufio.NewScanner(stdin)
	return func(label string) (string, error) {
		fmt.Fprint(prompt, label)
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		fmt.Fprintln(prompt)
		return strings.TrimRight(sc.Text(), "\r"), nil
	}
}
