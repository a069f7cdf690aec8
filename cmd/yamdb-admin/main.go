// Package main is the entry point for the YaMDb admin CLI.
// This tool provides administrative commands that bypass the HTTP API,
// most importantly bootstrapping the first admin account.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/khomenkoalx/api-yamdb/internal/config"
	"github.com/khomenkoalx/api-yamdb/internal/domain"
	"github.com/khomenkoalx/api-yamdb/internal/repository"
	"github.com/khomenkoalx/api-yamdb/internal/repository/postgres"
	"github.com/khomenkoalx/api-yamdb/internal/repository/sqlite"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "version":
		fmt.Printf("YaMDb Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "createsuperuser":
		err = runCreateSuperuser(args)

	case "setrole":
		err = runSetRole(args)

	case "listusers":
		err = runListUsers(args)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runCreateSuperuser(args []string) error {
	fs := flag.NewFlagSet("createsuperuser", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	username := fs.String("username", "", "username for the new account")
	email := fs.String("email", "", "email for the new account")
	fs.Parse(args)

	if *username == "" || *email == "" {
		return fmt.Errorf("both --username and --email are required")
	}
	if err := domain.ValidateUsername(*username); err != nil {
		return err
	}
	if err := domain.ValidateEmail(*email); err != nil {
		return err
	}

	ctx := context.Background()
	repos, cleanup, err := openRepositories(ctx, *configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	user := domain.NewUser(*username, *email)
	user.Role = domain.RoleAdmin
	user.IsSuperuser = true

	if err := repos.User.Create(ctx, user); err != nil {
		return err
	}

	fmt.Printf("Created superuser %q (id %d)\n", user.Username, user.ID)
	fmt.Println("Sign in through the regular signup flow to obtain a token.")
	return nil
}

func runSetRole(args []string) error {
	fs := flag.NewFlagSet("setrole", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	username := fs.String("username", "", "account to change")
	role := fs.String("role", "", "new role: user, moderator or admin")
	fs.Parse(args)

	if *username == "" || *role == "" {
		return fmt.Errorf("both --username and --role are required")
	}

	newRole := domain.Role(*role)
	if !newRole.Valid() {
		return domain.ErrInvalidRole
	}

	ctx := context.Background()
	repos, cleanup, err := openRepositories(ctx, *configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	user, err := repos.User.GetByUsername(ctx, *username)
	if err != nil {
		return err
	}

	user.Role = newRole
	if err := repos.User.Update(ctx, user); err != nil {
		return err
	}

	fmt.Printf("User %q is now %s\n", user.Username, user.Role)
	return nil
}

func runListUsers(args []string) error {
	fs := flag.NewFlagSet("listusers", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	search := fs.String("search", "", "filter by username substring")
	limit := fs.Int("limit", 100, "maximum number of rows")
	fs.Parse(args)

	ctx := context.Background()
	repos, cleanup, err := openRepositories(ctx, *configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := repos.User.List(ctx, *search, repository.ListOptions{Limit: *limit})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE")
	for _, u := range result.Items {
		role := string(u.Role)
		if u.IsSuperuser {
			role += " (superuser)"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, role)
	}
	w.Flush()

	fmt.Printf("\n%d of %d users\n", len(result.Items), result.Total)
	return nil
}

// openRepositories connects to whichever backend the config selects.
// SQLite migrations run automatically so the CLI works on a fresh file.
func openRepositories(ctx context.Context, configPath string) (*repository.Repositories, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	logger := zerolog.Nop()

	if cfg.Database.IsEmbedded() {
		db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(cfg.Database.Path), logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return sqlite.NewRepositories(db), func() { db.Close() }, nil
	}

	db, err := postgres.NewDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewRepositories(db), func() { db.Close() }, nil
}

func printUsage() {
	fmt.Println(`YaMDb Admin CLI

Usage:
  yamdb-admin <command> [arguments]

Commands:
  createsuperuser  Create an admin account with the superuser flag
  setrole          Change a user's role
  listusers        List accounts in the database
  version          Print version information
  help             Show this help message

Examples:
  yamdb-admin createsuperuser --username admin --email admin@example.com
  yamdb-admin setrole --username alice --role moderator
  yamdb-admin listusers --search ali --limit 20

Use --config to point at a config file; YAMDB_* environment
variables are honored as well.`)
}
