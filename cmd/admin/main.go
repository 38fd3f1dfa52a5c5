// Package main provides admin account management for the ID portal.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"idportal/internal/config"
	"idportal/internal/database"
	"idportal/internal/repository"
	"idportal/internal/service"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  admin add <username> [-name \"Full Name\"] [-password secret]   - Create an admin account")
	fmt.Println("  admin reset-password <username> [-password secret]            - Replace an admin password")
	fmt.Println("  admin list                                                    - List all admins")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	c := &cli{
		accounts: service.NewAccountService(repository.NewRegistry(db, nil), nil, nil),
		in:       bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
}

type cli struct {
	accounts *service.AccountService
	in       *bufio.Reader
	out      io.Writer
}

func (c *cli) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "add":
		fs := flag.NewFlagSet("add", flag.ContinueOnError)
		name := fs.String("name", "", "full name shown in the admin UI")
		password := fs.String("password", "", "password (prompted when empty)")
		username, err := parseWithUsername(fs, args)
		if err != nil {
			return err
		}
		if *password == "" {
			if *password, err = c.prompt("Password: "); err != nil {
				return err
			}
		}
		admin, err := c.accounts.CreateAdmin(ctx, username, *name, *password)
		if err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		color.Green("Admin %s created (ID: %d)", admin.Username, admin.ID)
		return nil

	case "reset-password":
		fs := flag.NewFlagSet("reset-password", flag.ContinueOnError)
		password := fs.String("password", "", "new password (prompted when empty)")
		username, err := parseWithUsername(fs, args)
		if err != nil {
			return err
		}
		if *password == "" {
			if *password, err = c.prompt("New password: "); err != nil {
				return err
			}
		}
		if err := c.accounts.ResetAdminPassword(ctx, username, *password); err != nil {
			return fmt.Errorf("reset password: %w", err)
		}
		color.Green("Password updated for %s", username)
		return nil

	case "list":
		admins, err := c.accounts.ListAdmins(ctx)
		if err != nil {
			return fmt.Errorf("list admins: %w", err)
		}
		table := tablewriter.NewWriter(c.out)
		table.SetHeader([]string{"ID", "Username", "Full Name", "Created"})
		for _, a := range admins {
			table.Append([]string{
				strconv.FormatUint(uint64(a.ID), 10),
				a.Username,
				a.FullName,
				a.CreatedAt.Format("2006-01-02 15:04"),
			})
		}
		table.Render()
		return nil

	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

// parseWithUsername accepts the username before or after the flags.
func parseWithUsername(fs *flag.FlagSet, args []string) (string, error) {
	var username string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		username, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if username == "" {
		username = fs.Arg(0)
	}
	if strings.TrimSpace(username) == "" {
		return "", fmt.Errorf("username is required")
	}
	return username, nil
}

func (c *cli) prompt(label string) (string, error) {
	_, _ = fmt.Fprint(c.out, label)
	line, err := c.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
