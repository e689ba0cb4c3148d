package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/AdamBeresnev/quiz-bracket/internal/config"
	"github.com/AdamBeresnev/quiz-bracket/internal/db"
	"github.com/AdamBeresnev/quiz-bracket/internal/service"
	"github.com/AdamBeresnev/quiz-bracket/internal/store"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := cfg.NewLogger()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database.DB); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	cliApp := newCLIApp(newServices(database, logger, os.Stdout))
	if err := cliApp.Run(append([]string{os.Args[0]}, flag.Args()...)); err != nil {
		log.Fatal(err)
	}
}

type services struct {
	leaderboard *service.LeaderboardService
	questions   *service.QuestionService
	tournaments *service.TournamentService
	out         io.Writer
}

func newServices(database *sqlx.DB, logger *slog.Logger, out io.Writer) *services {
	tournamentStore := store.NewTournamentStore(database)
	leaderboardStore := store.NewLeaderboardStore(database)
	questionStore := store.NewQuestionStore(database)
	metrics := service.NewMetrics(nil)

	return &services{
		leaderboard: service.NewLeaderboardService(database, leaderboardStore, logger, metrics),
		questions:   service.NewQuestionService(database, questionStore, tournamentStore, logger),
		tournaments: service.NewTournamentService(database, tournamentStore, questionStore, leaderboardStore, service.Options{
			AnswerTimeout: -1,
			Logger:        logger,
			Metrics:       metrics,
		}),
		out: out,
	}
}

func newCLIApp(svc *services) *cli.App {
	return &cli.App{
		Name:      "quizctl",
		Usage:     "manage the quiz bracket database",
		Writer:    svc.out,
		ErrWriter: svc.out,
		Commands: []*cli.Command{
			newLeaderboardCommand(svc),
			newQuestionsCommand(svc),
			newTournamentCommand(svc),
		},
	}
}

func newLeaderboardCommand(svc *services) *cli.Command {
	return &cli.Command{
		Name:  "leaderboard",
		Usage: "leaderboard history",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "print every recorded tournament, newest first",
				Action: func(c *cli.Context) error {
					entries, err := svc.leaderboard.List(c.Context)
					if err != nil {
						return err
					}
					w := tabwriter.NewWriter(svc.out, 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "RECORDED\tCOMPETITION\tWINNER\tSCORES")
					for _, e := range entries {
						scores := make([]string, 0, len(e.FinalScores))
						for _, s := range e.FinalScores {
							scores = append(scores, fmt.Sprintf("%s: %d", s.TeamName, s.Score))
						}
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.RecordedAt.Format("2006-01-02 15:04"), e.CompetitionName, e.WinnerName, strings.Join(scores, ", "))
					}
					return w.Flush()
				},
			},
			{
				Name:  "clear",
				Usage: "delete the whole leaderboard history",
				Action: func(c *cli.Context) error {
					removed, err := svc.leaderboard.Clear(c.Context)
					if err != nil {
						return err
					}
					fmt.Fprintf(svc.out, "Removed %d leaderboard entries\n", removed)
					return nil
				},
			},
			{
				Name:  "export",
				Usage: "write the leaderboard to an xlsx workbook",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Value: "leaderboard.xlsx", Usage: "output file"},
				},
				Action: func(c *cli.Context) error {
					f, err := os.Create(c.String("out"))
					if err != nil {
						return err
					}
					if err := svc.leaderboard.Export(c.Context, f); err != nil {
						f.Close()
						return err
					}
					if err := f.Close(); err != nil {
						return err
					}
					fmt.Fprintf(svc.out, "Exported leaderboard to %s\n", c.String("out"))
					return nil
				},
			},
		},
	}
}

func newQuestionsCommand(svc *services) *cli.Command {
	return &cli.Command{
		Name:  "questions",
		Usage: "question bank",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "print the question bank",
				Action: func(c *cli.Context) error {
					questions, err := svc.questions.List(c.Context)
					if err != nil {
						return err
					}
					w := tabwriter.NewWriter(svc.out, 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "ID\tTYPE\tQUESTION\tANSWER")
					for _, q := range questions {
						fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", q.ID, q.Type, q.Text, q.CorrectAnswer)
					}
					return w.Flush()
				},
			},
			{
				Name:  "import",
				Usage: "load questions from a YAML or xlsx file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Required: true, Usage: "question file (.yaml, .yml or .xlsx)"},
					&cli.BoolFlag{Name: "replace", Usage: "replace the bank instead of appending"},
				},
				Action: func(c *cli.Context) error {
					path := c.String("file")
					data, err := os.ReadFile(path)
					if err != nil {
						return err
					}
					n, err := svc.questions.Import(c.Context, path, data, c.Bool("replace"))
					if err != nil {
						return err
					}
					fmt.Fprintf(svc.out, "Imported %d questions from %s\n", n, path)
					return nil
				},
			},
		},
	}
}

func newTournamentCommand(svc *services) *cli.Command {
	return &cli.Command{
		Name:  "tournament",
		Usage: "persisted tournament state",
		Before: func(c *cli.Context) error {
			return svc.tournaments.Load(c.Context)
		},
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "print the current tournament",
				Action: func(c *cli.Context) error {
					t := svc.tournaments.Snapshot()
					if !t.IsActive && t.Winner == nil {
						fmt.Fprintln(svc.out, "No tournament running")
						return nil
					}
					fmt.Fprintf(svc.out, "%s (stage %s, round %d, match %d)\n", t.Name, t.Stage, t.CurrentRound, t.CurrentMatchNumber)
					if turn := t.TurnTeam(); turn != "" {
						fmt.Fprintf(svc.out, "Live: %s, %s to answer\n", strings.Join(t.CurrentPair, " vs "), turn)
					}
					if t.Winner != nil {
						fmt.Fprintf(svc.out, "Champion: %s\n", *t.Winner)
					}
					w := tabwriter.NewWriter(svc.out, 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "TEAM\tSCORE\tSTATUS")
					for _, team := range t.Teams {
						fmt.Fprintf(w, "%s\t%d\t%s\n", team.Name, team.Score, team.Status)
					}
					return w.Flush()
				},
			},
			{
				Name:  "reset",
				Usage: "discard the current tournament, keeping questions and leaderboard",
				Action: func(c *cli.Context) error {
					if _, err := svc.tournaments.ResetTournament(c.Context); err != nil {
						return err
					}
					fmt.Fprintln(svc.out, "Tournament reset")
					return nil
				},
			},
		},
	}
}
