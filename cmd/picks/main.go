package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/riskibarqy/diamond-plays/internal/app"
	"github.com/riskibarqy/diamond-plays/internal/config"
	"github.com/riskibarqy/diamond-plays/internal/domain/game"
	"github.com/riskibarqy/diamond-plays/internal/platform/logging"
	"github.com/riskibarqy/diamond-plays/internal/usecase"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewConsole(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := strings.ToLower(strings.TrimSpace(os.Args[1]))
	if err := run(ctx, cfg, logger, cmd, os.Args[2:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		logger.Error("command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *logging.Logger, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	auth := authFlags{}
	fs.StringVar(&auth.token, "token", os.Getenv("PICK_API_TOKEN"), "bearer token (defaults to PICK_API_TOKEN)")
	fs.StringVar(&auth.email, "email", "", "sign in with this email")
	fs.StringVar(&auth.password, "password", os.Getenv("PICK_API_PASSWORD"), "password for -email")
	dateFlag := fs.String("date", "", "calendar day as YYYY-MM-DD (defaults to today)")
	gameID := fs.String("game", "", "game id")
	teamID := fs.String("team", "", "team id")
	playerID := fs.String("player", "", "game player id to select")

	switch cmd {
	case "login", "games", "players", "select", "watch":
	default:
		printUsage()
		return flag.ErrHelp
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	date, err := parseDate(*dateFlag, cfg.Location)
	if err != nil {
		return err
	}

	client, err := app.NewPickClient(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build client: %w", err)
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("close client failed", "error", closeErr)
		}
	}()

	if err := auth.apply(ctx, client); err != nil {
		return err
	}
	svc := client.Service

	switch cmd {
	case "login":
		fmt.Println("signed in")
		if note := loginPersistenceNote(cfg.CredentialBackend); note != "" {
			fmt.Println(note)
		}
		return nil
	case "games":
		if err := loadDay(ctx, svc, date, cfg.Location); err != nil {
			return err
		}
		printGames(svc.Snapshot())
		return nil
	case "players":
		if *gameID == "" || *teamID == "" {
			return errors.New("players requires -game and -team")
		}
		if err := svc.FetchPlayers(ctx, *gameID, *teamID); err != nil {
			return err
		}
		printRoster(svc.Snapshot(), *teamID)
		return nil
	case "select":
		if *playerID == "" {
			return errors.New("select requires -player")
		}
		if err := loadDay(ctx, svc, date, cfg.Location); err != nil {
			return err
		}
		if err := svc.PrefetchPlayers(ctx, 4); err != nil {
			return err
		}
		svc.SetSelectionObserver(func(key usecase.TeamKey, phase usecase.SelectionPhase) {
			logger.Info("selection progress", "team", key.String(), "phase", phase)
		})
		if err := svc.SelectPlayer(ctx, *playerID); err != nil {
			return err
		}
		printGames(svc.Snapshot())
		return nil
	default:
		return watch(ctx, svc, date, cfg)
	}
}

type authFlags struct {
	token    string
	email    string
	password string
}

// apply signs the client in. Without flags it relies on a token the credential
// store already holds.
func (a authFlags) apply(ctx context.Context, client *app.PickClient) error {
	switch {
	case strings.TrimSpace(a.email) != "":
		return client.SignIn(ctx, a.email, a.password)
	case strings.TrimSpace(a.token) != "":
		return client.Service.Login(ctx, strings.TrimSpace(a.token))
	}

	authenticated, err := client.Service.CheckAuth(ctx)
	if err != nil {
		return err
	}
	if !authenticated {
		return errors.New("not signed in: pass -email/-password or -token")
	}
	return nil
}

// loadDay fetches games and selections for date. Selecting the day the service
// already shows is a no-op, so that case refreshes instead.
func loadDay(ctx context.Context, svc *usecase.GameDataService, date time.Time, loc *time.Location) error {
	current := svc.Snapshot().SelectedDate
	if usecase.FormatLocalDate(current, loc) == usecase.FormatLocalDate(date, loc) {
		return svc.RefreshAllData(ctx)
	}
	return svc.SetSelectedDate(ctx, date)
}

func watch(ctx context.Context, svc *usecase.GameDataService, date time.Time, cfg config.Config) error {
	if err := loadDay(ctx, svc, date, cfg.Location); err != nil {
		return err
	}
	printGames(svc.Snapshot())

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			printGames(svc.Snapshot())
		}
	}
}

func parseDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Now().In(loc), nil
	}
	out, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -date %q: %w", raw, err)
	}
	return out, nil
}

func printGames(snap usecase.Snapshot) {
	fmt.Printf("%s  %d game(s)\n", snap.SelectedDate.Format("Mon 2006-01-02"), len(snap.Games))
	if snap.Error != "" {
		fmt.Println(snap.Error)
	}
	for _, g := range snap.Games {
		fmt.Printf("%-4s @ %-4s %-12s %s\n", g.AwayTeam.Abbreviation, g.HomeTeam.Abbreviation, scoreLine(g), g.ID)
		for _, team := range []game.Team{g.AwayTeam, g.HomeTeam} {
			if picked := snap.SelectedPlayers[team.ID]; picked != nil {
				fmt.Printf("    %-4s pick: %s (%s)\n", team.Abbreviation, picked.DisplayName(), picked.DisplayPosition())
			}
		}
	}
}

func scoreLine(g game.Game) string {
	switch {
	case game.IsLiveStatus(g.Status), game.IsFinishedStatus(g.Status):
		return fmt.Sprintf("%d-%d %s", g.AwayScore, g.HomeScore, game.NormalizeStatus(g.Status))
	default:
		return game.NormalizeStatus(g.Status)
	}
}

func printRoster(snap usecase.Snapshot, teamID string) {
	roster := snap.Players[teamID]
	if len(roster) == 0 {
		fmt.Println("no lineup posted")
		return
	}
	for _, entry := range roster {
		fmt.Printf("%d. %-24s %-4s %s\n", entry.BattingOrder, entry.DisplayName(), entry.DisplayPosition(), entry.ID)
	}
}

func printUsage() {
	fmt.Println("usage: picks <login|games|players|select|watch> [flags]")
	fmt.Println("  login   -email E -password P")
	fmt.Println("  games   [-date YYYY-MM-DD]")
	fmt.Println("  players -game ID -team ID")
	fmt.Println("  select  -player ID [-date YYYY-MM-DD]")
	fmt.Println("  watch   [-date YYYY-MM-DD]")
}

// loginPersistenceNote warns when a signed-in token cannot outlive the process.
func loginPersistenceNote(backend string) string {
	if backend != config.CredentialBackendMemory {
		return ""
	}
	return "note: the token is kept in memory and is lost when picks exits; set CREDENTIAL_BACKEND=redis to stay signed in"
}
