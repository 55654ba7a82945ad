package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/MrSnakeDoc/pinmap/internal/app"
	"github.com/MrSnakeDoc/pinmap/internal/commands"
	"github.com/MrSnakeDoc/pinmap/internal/version"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: pinmap [COMMAND]

Commands:
  serve           run the HTTP server (default)
  migrate         apply the database schema and exit
  hash-password   print a bcrypt hash for PINMAP_ADMIN_PASSWORD_HASH
  version         print build information
`)
}

func main() {
	cmd, args := "serve", []string(nil)
	if len(os.Args) > 1 {
		cmd, args = os.Args[1], os.Args[2:]
	}

	switch cmd {
	case "serve":
		a, err := app.New()
		if err != nil {
			log.Fatalf("❌ pinmap failed to start: %v", err)
		}
		if err := a.Run(); err != nil {
			log.Fatalf("❌ pinmap stopped with error: %v", err)
		}
	case "migrate":
		if err := app.Migrate(); err != nil {
			log.Fatalf("❌ migration failed: %v", err)
		}
	case "hash-password":
		err := commands.HashPassword(args, os.Stdin, os.Stdout, os.Stderr)
		switch {
		case errors.Is(err, flag.ErrHelp):
		case err != nil:
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Println(version.String())
	case "-h", "--help", "help":
		usage()
	default:
		usage()
		os.Exit(2)
	}
}
