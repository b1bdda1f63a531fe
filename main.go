// Package main is the rrtnav command: plan and follow routes through an obstacle field, either
// once from the command line or behind an HTTP API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"rrtnav/api"
	"rrtnav/config"
	"rrtnav/planner"
	"rrtnav/scenario"
	"rrtnav/sim"
)

const (
	flagDebug         = "debug"
	flagEnvFile       = "env-file"
	flagScenario      = "scenario"
	flagSeed          = "seed"
	flagMaxIterations = "max-iterations"
	flagNearestIndex  = "nearest-index"
	flagClearance     = "clearance"
	flagOut           = "out"
	flagPort          = "port"
	flagRealtime      = "realtime"
	flagMaxTicks      = "max-ticks"
	flagRetries       = "retries"
	flagGeoJSON       = "geojson"
	flagSimplify      = "simplify"
	flagPrune         = "prune"
)

func main() {
	var (
		logger golog.Logger
		cfg    *config.Config
	)

	scenarioFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    flagScenario,
			Aliases: []string{"s"},
			Usage:   "load the scenario from `FILE` instead of the built-in course",
		},
		&cli.Int64Flag{
			Name:  flagSeed,
			Usage: "planner random seed",
		},
		&cli.IntFlag{
			Name:  flagMaxIterations,
			Usage: "planner iteration budget",
		},
		&cli.BoolFlag{
			Name:  flagNearestIndex,
			Usage: "use an R-tree for nearest node lookups",
		},
		&cli.Float64Flag{
			Name:  flagClearance,
			Usage: "distance the robot keeps from every obstacle",
		},
	}

	app := &cli.App{
		Name:  "rrtnav",
		Usage: "plan and follow paths through a 2D obstacle field",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagEnvFile,
				Value: ".env",
				Usage: "load environment variables from `FILE` when it exists",
			},
		},
		Before: func(c *cli.Context) error {
			var err error
			if cfg, err = config.Load(c.String(flagEnvFile)); err != nil {
				return err
			}
			if c.Bool(flagDebug) || cfg.Debug {
				logger = golog.NewDebugLogger("rrtnav")
			} else {
				logger = golog.NewLogger("rrtnav")
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagPort,
						Usage: "listen port (default from RRTNAV_PORT)",
					},
				},
				Action: func(c *cli.Context) error {
					if c.IsSet(flagPort) {
						cfg.Port = c.Int(flagPort)
					}
					return serve(c.Context, cfg, logger)
				},
			},
			{
				Name:  "plan",
				Usage: "plan one path and print it as JSON",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    flagOut,
						Aliases: []string{"o"},
						Usage:   "write the result to `FILE` instead of stdout",
					},
				}, scenarioFlags...),
				Action: func(c *cli.Context) error {
					s, err := loadScenario(c, cfg, logger)
					if err != nil {
						return err
					}
					return plan(c.Context, s, cfg, c.String(flagOut), logger)
				},
			},
			{
				Name:  "simulate",
				Usage: "plan and drive the follower to the goal without a display",
				Flags: append([]cli.Flag{
					&cli.BoolFlag{
						Name:  flagRealtime,
						Usage: "pace ticks to the tick duration",
					},
					&cli.IntFlag{
						Name:  flagMaxTicks,
						Usage: "stop after this many ticks",
					},
					&cli.IntFlag{
						Name:  flagRetries,
						Usage: "extra planning attempts with the next seed when no path is found",
					},
					&cli.StringFlag{
						Name:    flagOut,
						Aliases: []string{"o"},
						Usage:   "write the trajectory as JSON lines to `FILE`",
					},
				}, scenarioFlags...),
				Action: func(c *cli.Context) error {
					s, err := loadScenario(c, cfg, logger)
					if err != nil {
						return err
					}
					simCfg := sim.Config{
						MaxTicks: c.Int(flagMaxTicks),
						Retries:  cfg.Retries,
						Realtime: c.Bool(flagRealtime),
					}
					if c.IsSet(flagRetries) {
						simCfg.Retries = c.Int(flagRetries)
					}
					return simulate(c.Context, s, simCfg, c.String(flagOut), logger)
				},
			},
			{
				Name:  "scenario",
				Usage: "create and convert scenario files",
				Subcommands: []*cli.Command{
					{
						Name:      "init",
						Usage:     "write the built-in course to a file",
						ArgsUsage: "FILE",
						Action: func(c *cli.Context) error {
							if c.NArg() != 1 {
								return errors.New("expected one output file")
							}
							return scenario.Save(scenario.Default(), c.Args().First(), logger)
						},
					},
					{
						Name:      "import",
						Usage:     "add GeoJSON polygons to a scenario as obstacles",
						ArgsUsage: "FILE",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     flagGeoJSON,
								Required: true,
								Usage:    "read polygons from `FILE`",
							},
							&cli.StringFlag{
								Name:  flagScenario,
								Usage: "start from the scenario in `FILE` instead of the built-in course",
							},
							&cli.Float64Flag{
								Name:  flagSimplify,
								Usage: "simplify polygons with this tolerance; negative picks one from the vertex count",
							},
							&cli.BoolFlag{
								Name:  flagPrune,
								Usage: "drop obstacles contained in another obstacle",
							},
						},
						Action: func(c *cli.Context) error {
							if c.NArg() != 1 {
								return errors.New("expected one output file")
							}
							return importGeoJSON(c, c.Args().First(), logger)
						},
					},
					{
						Name:      "export",
						Usage:     "write a scenario as GeoJSON",
						ArgsUsage: "FILE",
						Flags:     scenarioFlags[:1],
						Action: func(c *cli.Context) error {
							if c.NArg() != 1 {
								return errors.New("expected one output file")
							}
							s, err := loadScenario(c, cfg, logger)
							if err != nil {
								return err
							}
							data, err := scenario.ExportGeoJSON(s)
							if err != nil {
								return err
							}
							//nolint:gosec
							return os.WriteFile(c.Args().First(), data, 0o644)
						},
					},
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		//nolint:gocritic
		os.Exit(1)
	}
}

// loadScenario reads the scenario named by flags or the environment and applies flag overrides.
func loadScenario(c *cli.Context, cfg *config.Config, logger golog.Logger) (*scenario.Scenario, error) {
	if c.IsSet(flagScenario) {
		cfg.Scenario = c.String(flagScenario)
	}
	s, err := cfg.LoadScenario(logger)
	if err != nil {
		return nil, err
	}
	if c.IsSet(flagSeed) {
		s.Planner.Seed = c.Int64(flagSeed)
	}
	if c.IsSet(flagMaxIterations) {
		s.Planner.MaxIterations = c.Int(flagMaxIterations)
	}
	if c.Bool(flagNearestIndex) {
		s.Planner.NearestIndex = true
	}
	if c.IsSet(flagClearance) {
		s.Clearance = c.Float64(flagClearance)
	}
	return s, nil
}

func serve(ctx context.Context, cfg *config.Config, logger golog.Logger) error {
	srv := api.NewServer(api.Options{
		Retries:        cfg.Retries,
		Realtime:       cfg.Realtime,
		AllowedOrigins: cfg.Origins(),
	}, logger)

	httpServer := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("server starting", "addr", httpServer.Addr, "realtime", cfg.Realtime, "origins", cfg.Origins())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "server stopped")
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func plan(ctx context.Context, s *scenario.Scenario, cfg *config.Config, out string, logger golog.Logger) error {
	driver, err := sim.NewDriver(s, sim.Config{Retries: cfg.Retries}, logger)
	if err != nil {
		return err
	}
	res, attempts, err := driver.Plan(ctx)
	if err != nil && !planner.IsRetryable(err) {
		return err
	}

	result := map[string]interface{}{
		"success":  res.Found(),
		"attempts": attempts,
		"nodes":    res.Tree.Len(),
	}
	if res.Found() {
		result["raw"] = res.Raw
		result["compacted"] = res.Compacted
		result["rawLength"] = res.Raw.Length()
		result["compactedLength"] = res.Compacted.Length()
	} else {
		result["message"] = err.Error()
	}
	return writeJSON(out, result)
}

func simulate(ctx context.Context, s *scenario.Scenario, cfg sim.Config, out string, logger golog.Logger) (err error) {
	driver, err := sim.NewDriver(s, cfg, logger)
	if err != nil {
		return err
	}

	var enc *json.Encoder
	if out != "" {
		//nolint:gosec
		f, createErr := os.Create(out)
		if createErr != nil {
			return errors.Wrap(createErr, "failed to create trajectory file")
		}
		defer func() {
			err = multierr.Combine(err, errors.Wrap(f.Close(), "failed to close trajectory file"))
		}()
		enc = json.NewEncoder(f)
	}

	outcome, err := driver.Run(ctx, func(frame sim.Frame) error {
		if enc == nil {
			return nil
		}
		return enc.Encode(frame)
	})
	if err != nil {
		return err
	}
	logger.Infow("simulation finished",
		"status", outcome.Status,
		"ticks", outcome.Ticks,
		"seconds", float64(outcome.Ticks)*s.Follower.TickDuration,
		"x", outcome.Final.X,
		"y", outcome.Final.Y,
		"waypoints", len(outcome.Plan.Compacted),
	)
	return nil
}

func importGeoJSON(c *cli.Context, out string, logger golog.Logger) error {
	s := scenario.Default()
	if file := c.String(flagScenario); file != "" {
		var err error
		if s, err = scenario.Load(file, logger); err != nil {
			return err
		}
	}

	//nolint:gosec
	data, err := os.ReadFile(c.String(flagGeoJSON))
	if err != nil {
		return errors.Wrap(err, "failed to read geojson")
	}
	opts := importOptions{Prune: c.Bool(flagPrune)}
	if c.IsSet(flagSimplify) {
		opts.Simplify = true
		opts.Epsilon = c.Float64(flagSimplify)
	}
	if err := importObstacles(s, data, opts, logger); err != nil {
		return err
	}
	return scenario.Save(s, out, logger)
}

type importOptions struct {
	Simplify bool
	Epsilon  float64 // negative picks a tolerance from the vertex count
	Prune    bool
}

// importObstacles appends the GeoJSON polygons in data to the obstacles of s.
func importObstacles(s *scenario.Scenario, data []byte, opts importOptions, logger golog.Logger) error {
	polygons, err := scenario.ImportGeoJSON(data, logger)
	if err != nil {
		return err
	}
	for _, poly := range polygons {
		s.Obstacles = append(s.Obstacles, scenario.PolygonSpec(poly.Vertices...))
	}

	if opts.Simplify {
		epsilon := opts.Epsilon
		if epsilon < 0 {
			epsilon = scenario.EstimateSimplificationEpsilon(polygons)
		}
		removed := s.SimplifyObstacles(epsilon)
		logger.Infow("simplified polygons", "epsilon", epsilon, "removedVertices", removed)
	}
	if opts.Prune {
		removed, err := s.PruneObstacles()
		if err != nil {
			return err
		}
		logger.Infow("pruned contained obstacles", "removed", removed)
	}

	if err := s.Validate(); err != nil {
		logger.Warnw("scenario is not plannable as written", "error", err)
	}
	logger.Infow("imported obstacles", "polygons", len(polygons), "total", len(s.Obstacles))
	return nil
}

func writeJSON(out string, v interface{}) (err error) {
	w := os.Stdout
	if out != "" {
		//nolint:gosec
		f, createErr := os.Create(out)
		if createErr != nil {
			return errors.Wrap(createErr, "failed to create output file")
		}
		defer func() {
			err = multierr.Combine(err, errors.Wrap(f.Close(), "failed to close output file"))
		}()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "failed to write output")
}
