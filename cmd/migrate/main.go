// Command migrate manages the ID portal database schema.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"idportal/internal/config"
	"idportal/internal/database"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"gorm.io/gorm"
)

const usageText = `usage: migrate <command>

  up              apply pending SQL migrations
  auto            run GORM AutoMigrate regardless of DB_SCHEMA_MODE
  status          show every migration and whether it is applied
  down <version>  roll back the newest applied migration`

func main() {
	if err := run(); err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Usage = func() { fmt.Fprintln(flag.CommandLine.Output(), usageText) }
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		return fmt.Errorf("missing command")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	ctx := context.Background()
	switch cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0))); cmd {
	case "up":
		if err := database.RunMigrations(ctx, db); err != nil {
			return err
		}
		color.Green("schema is up to date")
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		color.Green("automigrations applied")
	case "status":
		return printStatus(ctx, db, cfg)
	case "down":
		version, err := strconv.Atoi(flag.Arg(1))
		if err != nil {
			return fmt.Errorf("down needs a numeric version, got %q", flag.Arg(1))
		}
		if err := database.RollbackMigration(ctx, db, version); err != nil {
			return err
		}
		color.Yellow("rolled back migration %06d", version)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func printStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	status, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return fmt.Errorf("schema status failed: %w", err)
	}
	color.Cyan("mode=%s env=%s sql=%t auto=%t", status.Mode, status.Environment, status.RunSQL, status.RunAuto)
	if !status.RunSQL {
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Migration", "State", "Applied At"})
	for _, m := range status.Migrations {
		state, at := "pending", ""
		switch {
		case m.Drifted():
			state, at = "EDITED", m.Applied.AppliedAt.Format("2006-01-02 15:04")
		case m.Applied != nil:
			state, at = "applied", m.Applied.AppliedAt.Format("2006-01-02 15:04")
		}
		table.Append([]string{m.String(), state, at})
	}
	table.Render()

	if n := len(status.Pending()); n > 0 {
		color.Yellow("%d pending migration(s)", n)
	}
	return nil
}
