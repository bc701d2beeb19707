package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/labstack/gommon/log"
	"github.com/urfave/cli/v2"

	"inventory-tracker/internal/config"
	"inventory-tracker/internal/domain/entity"
	"inventory-tracker/internal/infrastructure/csvfile"
	"inventory-tracker/internal/infrastructure/report"
	"inventory-tracker/internal/infrastructure/server"
	"inventory-tracker/internal/usecase"
)

// NewApp builds the inventory-tracker command line.
func NewApp() *cli.App {
	return &cli.App{
		Name:  "inventory-tracker",
		Usage: "track household items and their expiry dates",
		Commands: []*cli.Command{
			serveCommand(),
			reportCommand(),
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Usage:   "dotenv file to load before reading the environment",
				Value:   ".env",
				EnvVars: []string{"ENV_FILE"},
			},
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "port to listen on",
				EnvVars: []string{"SERVER_PORT"},
			},
			&cli.BoolFlag{
				Name:    "auto-notify",
				Usage:   "check for expiring items after every change",
				EnvVars: []string{"AUTO_NOTIFY"},
			},
			&cli.StringFlag{
				Name:    "import",
				Usage:   "CSV file to load at startup",
				EnvVars: []string{"SEED_CSV"},
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("env-file"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if c.IsSet("port") {
				cfg.ServerPort = c.String("port")
			}
			if c.IsSet("auto-notify") {
				cfg.AutoNotify = c.Bool("auto-notify")
			}
			if c.IsSet("import") {
				cfg.SeedCSV = c.String("import")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return server.NewServer(cfg).Run(c.Context)
		},
	}
}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "import a CSV file and print what is expiring",
		ArgsUsage: "<file.csv>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "pdf",
				Usage: "also write the PDF report to this file",
			},
			&cli.StringFlag{
				Name:  "today",
				Usage: "evaluate expiry as of this date (YYYY-MM-DD)",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("report needs exactly one CSV file", 2)
			}

			var clock entity.Clock = entity.SystemClock{}
			if today := c.String("today"); today != "" {
				at, err := entity.ParseDate(today)
				if err != nil {
					return cli.Exit(fmt.Sprintf("--today must be YYYY-MM-DD, got %q", today), 2)
				}
				clock = entity.FixedClock{At: at}
			}

			logger := log.New("report")
			logger.SetOutput(c.App.ErrWriter)
			logger.SetLevel(log.WARN)

			uc := usecase.NewItemUsecase(
				usecase.NewInventoryManager(clock),
				csvfile.NewRepository(),
				nil,
				report.NewPDFRenderer(),
				logger,
			)

			return runReport(c, uc, c.Args().First(), c.String("pdf"))
		},
	}
}

func runReport(c *cli.Context, uc usecase.ItemUsecase, path, pdfPath string) error {
	ctx := c.Context
	w := c.App.Writer

	result, err := uc.ImportCSV(ctx, path)
	if err != nil {
		return err
	}
	dashboard, err := uc.GetDashboard(ctx)
	if err != nil {
		return err
	}
	expiring, err := uc.GetExpiringItems(ctx)
	if err != nil {
		return err
	}
	expired, err := uc.GetExpiredItems(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Inventory report for %s\n", dashboard.Date)
	fmt.Fprintf(w, "Imported %d items from %s (%d lines skipped)\n", result.Added, path, len(result.Errors))
	for _, issue := range result.Errors {
		fmt.Fprintf(w, "  %s\n", issue.Message)
	}
	fmt.Fprintln(w)

	s := dashboard.Summary
	fmt.Fprintf(w, "Total: %d  Expired: %d  Expiring soon: %d  Safe: %d\n", s.Total, s.Expired, s.ExpiringSoon, s.Safe)
	fmt.Fprintf(w, "Categories: %s\n", formatCategories(dashboard.Categories.Categories))

	printItems(w, "Expiring soon", expiring, func(it *usecase.ItemView) string {
		return fmt.Sprintf("in %d days", it.DaysToExpiry)
	})
	printItems(w, "Expired", expired, func(it *usecase.ItemView) string {
		return fmt.Sprintf("%d days ago", -it.DaysToExpiry)
	})

	if pdfPath == "" {
		return nil
	}
	f, err := os.Create(pdfPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", pdfPath, err)
	}
	if err := uc.ExportReport(ctx, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nPDF report written to %s\n", pdfPath)
	return nil
}

func printItems(w io.Writer, title string, items []*usecase.ItemView, when func(*usecase.ItemView) string) {
	fmt.Fprintf(w, "\n%s (%d):\n", title, len(items))
	for _, it := range items {
		fmt.Fprintf(w, "  %s (%s) -> %s (%s)\n", it.Name, it.DisplayQuantity, it.ExpiryDate, when(it))
	}
}

func formatCategories(counts map[string]int) string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(counts))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s %d", name, counts[name]))
	}
	return strings.Join(parts, ", ")
}
