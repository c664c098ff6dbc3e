// Command examctl runs maintenance tasks against the exam portal database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/gaonpathshala/exam-portal/internal/config"
	"github.com/gaonpathshala/exam-portal/internal/repositories/postgres"
	"github.com/gaonpathshala/exam-portal/internal/services"
	"github.com/gaonpathshala/exam-portal/pkg"
	"github.com/olekukonko/tablewriter"
)

const usage = `usage: examctl <command> [flags]

commands:
  migrate        create or update the database tables
  seed-admin     create the admin account if it does not exist
  leaderboard    print the current monthly leaderboard
  report-cards   print per-student report card totals
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fail("load config", err)
	}

	ctx := context.Background()
	cmd, args := os.Args[1], os.Args[2:]

	switch cmd {
	case "migrate":
		err = runMigrate(cfg)
	case "seed-admin":
		err = runSeedAdmin(ctx, cfg, args)
	case "leaderboard":
		err = runLeaderboard(ctx, cfg, args)
	case "report-cards":
		err = runReportCards(ctx, cfg)
	default:
		color.Red("Unknown command %q", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fail(cmd, err)
	}
}

func fail(step string, err error) {
	color.Red("%s failed: %v", step, err)
	os.Exit(1)
}

func newServices(cfg *config.Config) (services.ServiceManager, error) {
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return nil, err
	}
	return services.NewServiceManager(services.Dependencies{Repo: postgres.NewRepository(db)}), nil
}

func runMigrate(cfg *config.Config) error {
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	if err := pkg.Migrate(db); err != nil {
		return err
	}
	color.Green("Migrations applied")
	return nil
}

func runSeedAdmin(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("seed-admin", flag.ExitOnError)
	name := fs.String("name", cfg.AdminSeed.Name, "admin name")
	password := fs.String("password", cfg.AdminSeed.Password, "admin password")
	phone := fs.String("phone", cfg.AdminSeed.Phone, "admin phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sm, err := newServices(cfg)
	if err != nil {
		return err
	}
	created, err := sm.Auth().SeedAdmin(ctx, &services.SeedAdminRequest{
		Name:     *name,
		Password: *password,
		Phone:    *phone,
	})
	if err != nil {
		return err
	}
	if created {
		color.Green("Admin %q created", *name)
	} else {
		color.Yellow("Admin %q already exists", *name)
	}
	return nil
}

func runLeaderboard(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("leaderboard", flag.ExitOnError)
	regNo := fs.String("reg-no", "", "show the top rows plus this student's row")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sm, err := newServices(cfg)
	if err != nil {
		return err
	}
	board, err := sm.Result().Leaderboard(ctx)
	if err != nil {
		return err
	}

	entries := board.Leaderboard
	if *regNo != "" {
		entries = services.SelectLeaderboardView(entries, *regNo)
	}

	color.Cyan("\nLeaderboard for %s", board.Month)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Rank", "Reg No", "Name", "Exams", "Score", "Average %"})
	for _, e := range entries {
		table.Append([]string{
			strconv.Itoa(e.Rank),
			e.RegNo,
			e.Name,
			strconv.Itoa(e.TotalExams),
			fmt.Sprintf("%d/%d", e.TotalCorrect, e.TotalQuestions),
			fmt.Sprintf("%.2f", e.AveragePercentage),
		})
	}
	table.Render()
	return nil
}

func runReportCards(ctx context.Context, cfg *config.Config) error {
	sm, err := newServices(cfg)
	if err != nil {
		return err
	}
	cards, err := sm.Result().ReportCards(ctx)
	if err != nil {
		return err
	}

	color.Cyan("\nReport cards")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Student", "Reg No", "Exams", "Correct", "Wrong", "Average %"})
	for _, card := range cards {
		table.Append([]string{
			card.Name,
			card.RegNo,
			strconv.Itoa(card.TotalExams),
			strconv.Itoa(card.TotalCorrect),
			strconv.Itoa(card.TotalWrong),
			fmt.Sprintf("%.2f", card.AveragePercentage),
		})
	}
	table.Render()
	return nil
}
