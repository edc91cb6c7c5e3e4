package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"tornadocal/internal/config"
	"tornadocal/internal/ics"
	appLog "tornadocal/internal/log"
	"tornadocal/internal/model"
	"tornadocal/internal/schedule"
	"tornadocal/internal/web"
)

const version = "0.1.0"

func main() {
	// A .env file is optional.
	_ = godotenv.Load()

	app := &cli.App{
		Name:    "tornadocal",
		Usage:   "Fetch the club's class calendar and serve it by team and weekday.",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "/etc/tornadocal/config.yaml",
				Usage:   "Path to config file",
				EnvVars: []string{"TORNADOCAL_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			dumpCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		appLog.Error("tornadocal failed", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the JSON API and refresh the calendar on a schedule.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Usage: "HTTP listen address (overrides config if set)"},
		},
		Action: func(c *cli.Context) error {
			conf, svc, err := setup(c.String("config"))
			if err != nil {
				return err
			}
			if l := c.String("listen"); l != "" {
				conf.Listen = l
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := web.NewServer(conf, svc)
			server.Refresh(ctx)

			sched := cron.New(cron.WithLocation(svc.Normalizer.Location()))
			if _, err := sched.AddFunc(conf.RefreshCron, func() {
				coll := server.Refresh(ctx)
				appLog.Info("scheduled refresh", "events", len(coll.AllEvents))
			}); err != nil {
				return fmt.Errorf("invalid refresh schedule %q: %w", conf.RefreshCron, err)
			}
			sched.Start()
			defer func() {
				<-sched.Stop().Done()
			}()

			err = server.ListenAndServe(ctx)
			appLog.Info("tornadocal exiting")
			return err
		},
	}
}

func dumpCommand() *cli.Command {
	return &cli.Command{
		Name:  "dump",
		Usage: "Fetch once and print the events.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "team", Usage: "Only print this team's events"},
			&cli.StringFlag{Name: "format", Value: "json", Usage: "json, yaml or ics (ics needs --team)"},
			&cli.BoolFlag{Name: "week", Usage: "Only events in the current Monday-Sunday week"},
		},
		Action: func(c *cli.Context) error {
			_, svc, err := setup(c.String("config"))
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(c.Context, 2*time.Minute)
			defer cancel()

			coll := svc.GetEvents(ctx)
			if c.Bool("week") {
				coll = schedule.FilterCollectionWeek(coll, svc.Today())
			}
			return dump(c.App.Writer, coll, c.String("team"), c.String("format"))
		},
	}
}

// setup loads config, applies the log level and wires the event service.
func setup(configPath string) (*config.Config, *schedule.Service, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config %s: %w", configPath, err)
	}

	level, err := appLog.ParseLevel(conf.LogLevel)
	if err != nil {
		appLog.Warn("unknown log level; using info", "log_level", conf.LogLevel)
	}
	appLog.SetLevel(level)

	loc, err := conf.ReferenceLocation()
	if err != nil {
		return nil, nil, err
	}

	teams := make([]schedule.Team, 0, len(conf.Teams))
	for _, t := range conf.Teams {
		teams = append(teams, schedule.Team{Name: t.Name, Match: t.Match})
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"refresh", conf.RefreshCron,
		"snapshot_ttl", conf.SnapshotTTL(),
		"teams", len(teams),
	)

	fetcher := ics.NewFetcher(conf.FetchTimeout())
	return conf, schedule.NewService(conf.FeedURL, fetcher, loc, teams), nil
}

func dump(w io.Writer, coll model.Collection, team, format string) error {
	var v any = coll
	if team != "" {
		t, ok := coll.Team(team)
		if !ok {
			return fmt.Errorf("unknown team %q (have %v)", team, coll.TeamNames())
		}
		v = t
		if format == "ics" {
			_, err := io.WriteString(w, ics.ExportTeamFeed(t.Name, t.Events, time.Now()))
			return err
		}
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	case "ics":
		return fmt.Errorf("format ics needs --team")
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
