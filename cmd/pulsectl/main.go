// main.go - Admin control tool for SitePulse
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"
	"gorm.io/gorm"

	"sitepulse/internal"
	"sitepulse/internal/seeder"
	"sitepulse/internal/settings"
	"sitepulse/internal/sites"
	"sitepulse/internal/users"
)

const (
	defaultShutdownTimeout = 30 * time.Second
)

// Command defines the interface for all command implementations
type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, app *internal.Application, args []string) error
}

var commands = []Command{
	&CreateUserCommand{},
	&CreateSiteCommand{},
	&ListSitesCommand{},
	&GrantAccessCommand{},
	&RotateAPIKeyCommand{},
	&ExcludeIPsCommand{},
	&MigrateCommand{},
	&SeedCommand{},
	&StatusCommand{},
	&HelpCommand{},
}

func main() {
	flag.Parse()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v, initiating cleanup...", sig)
		cancel()
	}()

	cmdName, args := parseArgs()

	cmd := findCommand(cmdName)
	if cmd == nil {
		showUsageAndExit()
	}

	app, err := internal.NewApp()
	if err != nil {
		log.Printf("Warning: Failed to initialize app: %v", err)
		log.Println("Proceeding with limited functionality...")
	}

	defer func() {
		if app != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
			defer cancel()
			if err := app.Shutdown(shutdownCtx); err != nil {
				log.Printf("Warning: Cleanup error: %v", err)
			}
		}
	}()

	if err := cmd.Execute(ctx, app, args); err != nil {
		log.Fatalf("Command failed: %v", err)
	}

	log.Printf("Command %s completed successfully", cmd.Name())
}

func appDB(app *internal.Application) (*gorm.DB, error) {
	if app == nil {
		return nil, fmt.Errorf("app initialization failed, cannot connect to database")
	}
	return app.DBManager.GetConnection(), nil
}

// promptPassword reads a password without echo, falling back to plain
// stdin when not attached to a terminal (tests, pipes).
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// CreateUserCommand creates an API user
type CreateUserCommand struct{}

func (c *CreateUserCommand) Name() string        { return "create-user" }
func (c *CreateUserCommand) Description() string { return "Creates an API user and prints its key" }

func (c *CreateUserCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s <email> [password]", c.Name())
	}
	email := args[0]

	var password string
	if len(args) >= 2 {
		password = args[1]
	} else {
		pwd1, err := promptPassword("Enter password: ")
		if err != nil {
			return err
		}
		pwd2, err := promptPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if pwd1 != pwd2 {
			return fmt.Errorf("passwords do not match")
		}
		password = pwd1
	}
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	db, err := appDB(app)
	if err != nil {
		return err
	}

	user, err := users.CreateUser(db, email, password)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("Created user %s (id %d)\n", user.Email, user.ID)
	fmt.Printf("API key: %s\n", user.APIKey)
	return nil
}

// CreateSiteCommand registers a site and issues its tracking token
type CreateSiteCommand struct{}

func (c *CreateSiteCommand) Name() string { return "create-site" }
func (c *CreateSiteCommand) Description() string {
	return "Registers a site for an owner and issues its site token"
}

func (c *CreateSiteCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: %s <owner-email> <name> <domain>", c.Name())
	}
	ownerEmail, name, domain := args[0], args[1], args[2]

	db, err := appDB(app)
	if err != nil {
		return err
	}

	owner, err := users.GetUserByEmail(db, ownerEmail)
	if err != nil {
		return fmt.Errorf("owner lookup failed: %w", err)
	}

	site, err := sites.CreateSite(db, owner.ID, name, domain)
	if err != nil {
		return fmt.Errorf("failed to create site: %w", err)
	}

	fmt.Printf("Created site %q (%s)\n", site.Name, site.Domain)
	fmt.Printf("Site token: %s\n", site.SiteID)
	return nil
}

// ListSitesCommand prints registered sites and their tokens
type ListSitesCommand struct{}

func (c *ListSitesCommand) Name() string { return "list-sites" }
func (c *ListSitesCommand) Description() string {
	return "Lists registered sites, optionally filtered by owner email"
}

func (c *ListSitesCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	db, err := appDB(app)
	if err != nil {
		return err
	}

	var all []sites.Site
	if len(args) >= 1 {
		owner, err := users.GetUserByEmail(db, args[0])
		if err != nil {
			return fmt.Errorf("owner lookup failed: %w", err)
		}
		all, err = sites.GetSitesByOwner(db, owner.ID)
		if err != nil {
			return err
		}
	} else {
		all, err = sites.GetAllSites(db)
		if err != nil {
			return err
		}
	}

	if len(all) == 0 {
		fmt.Println("No sites registered")
		return nil
	}
	for _, site := range all {
		fmt.Printf("%s  %-30s %s\n", site.SiteID, site.Domain, site.Name)
	}
	return nil
}

// GrantAccessCommand shares a site with another user
type GrantAccessCommand struct{}

func (c *GrantAccessCommand) Name() string        { return "grant-access" }
func (c *GrantAccessCommand) Description() string { return "Grants a user read access to a site" }

func (c *GrantAccessCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: %s <site-token> <email>", c.Name())
	}
	siteID, email := args[0], args[1]

	db, err := appDB(app)
	if err != nil {
		return err
	}

	if _, err := sites.GetSiteByToken(db, siteID); err != nil {
		return fmt.Errorf("site lookup failed: %w", err)
	}
	user, err := users.GetUserByEmail(db, email)
	if err != nil {
		return fmt.Errorf("user lookup failed: %w", err)
	}

	if err := sites.GrantAccess(db, siteID, user.ID); err != nil {
		return fmt.Errorf("failed to grant access: %w", err)
	}

	fmt.Printf("Granted %s access to site %s\n", user.Email, siteID)
	return nil
}

// RotateAPIKeyCommand replaces a user's API key
type RotateAPIKeyCommand struct{}

func (c *RotateAPIKeyCommand) Name() string        { return "rotate-api-key" }
func (c *RotateAPIKeyCommand) Description() string { return "Rotates a user's API key" }

func (c *RotateAPIKeyCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s <email>", c.Name())
	}

	db, err := appDB(app)
	if err != nil {
		return err
	}

	user, err := users.GetUserByEmail(db, args[0])
	if err != nil {
		return fmt.Errorf("user lookup failed: %w", err)
	}

	key, err := users.RotateAPIKey(db, user.ID)
	if err != nil {
		return fmt.Errorf("failed to rotate API key: %w", err)
	}

	fmt.Printf("New API key for %s: %s\n", user.Email, key)
	return nil
}

// ExcludeIPsCommand manages the ingest IP exclusion list
type ExcludeIPsCommand struct{}

func (c *ExcludeIPsCommand) Name() string { return "exclude-ips" }
func (c *ExcludeIPsCommand) Description() string {
	return "Shows or replaces the excluded IP list (comma-separated)"
}

func (c *ExcludeIPsCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	db, err := appDB(app)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		ips, err := settings.GetExcludedIPs(db)
		if err != nil {
			return err
		}
		if len(ips) == 0 {
			fmt.Println("No excluded IPs configured")
			return nil
		}
		for _, ip := range ips {
			fmt.Println(ip)
		}
		return nil
	}

	ips := strings.Split(args[0], ",")
	if err := settings.SetExcludedIPs(db, ips); err != nil {
		return fmt.Errorf("failed to store excluded IPs: %w", err)
	}
	fmt.Printf("Excluded IPs updated (%d entries)\n", len(ips))
	return nil
}

// MigrateCommand runs database migrations
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string        { return "migrate" }
func (c *MigrateCommand) Description() string { return "Runs database migrations" }

func (c *MigrateCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return fmt.Errorf("app initialization failed, cannot run migrations")
	}

	log.Println("Running database migrations...")
	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Println("Migrations completed successfully")
	return nil
}

// SeedCommand populates the DB with test data
type SeedCommand struct{}

func (c *SeedCommand) Name() string        { return "seed" }
func (c *SeedCommand) Description() string { return "Seeds the database with sample traffic" }

func (c *SeedCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	eventCount := fs.Int("events", 10000, "number of events to generate")
	siteToken := fs.String("site", "", "existing site token to seed (creates a demo site if empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if app == nil {
		return fmt.Errorf("unable to initialise app")
	}

	se := seeder.NewSeeder(app.DBManager, slog.Default(), *eventCount)
	return se.Run(ctx, *siteToken)
}

// StatusCommand implements a command to check the system status
type StatusCommand struct{}

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Description() string { return "Shows the current system status" }

func (c *StatusCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	db, err := appDB(app)
	if err != nil {
		return err
	}

	var userCount, siteCount, eventCount int64
	if err := db.Model(&users.User{}).Count(&userCount).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	db.Model(&sites.Site{}).Count(&siteCount)
	db.Table("events").Count(&eventCount)

	log.Println("System Status:")
	log.Println("- Database: Connected")
	log.Printf("- Users: %d", userCount)
	log.Printf("- Sites: %d", siteCount)
	log.Printf("- Events: %d", eventCount)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB: %w", err)
	}

	log.Printf("- Max Open Connections: %d", sqlDB.Stats().MaxOpenConnections)
	log.Printf("- Open Connections: %d", sqlDB.Stats().OpenConnections)
	log.Printf("- In Use: %d", sqlDB.Stats().InUse)
	log.Printf("- Idle: %d", sqlDB.Stats().Idle)

	return nil
}

// HelpCommand implements a command to show usage information
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Shows usage information" }

func (c *HelpCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fmt.Println("Usage: pulsectl [command] [args...]")
	fmt.Println("Available commands:")

	for _, cmd := range commands {
		fmt.Printf("  %s: %s\n", cmd.Name(), cmd.Description())
	}

	return nil
}

// parseArgs parses the command name and arguments
func parseArgs() (string, []string) {
	args := os.Args[1:]
	if len(args) == 0 {
		return "help", []string{}
	}
	return args[0], args[1:]
}

// findCommand finds a command by name
func findCommand(name string) Command {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

func showUsageAndExit() {
	fmt.Println("Unknown command. Run 'pulsectl help' for usage.")
	os.Exit(1)
}
