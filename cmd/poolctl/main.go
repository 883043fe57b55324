// Command poolctl drives a fixed-region memory pool from the command line:
// replay a scripted scenario, run a canned demo, or print build info.
package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	poolcli "github.com/voxelcore/regionpool/internal/cli"
	"github.com/voxelcore/regionpool/internal/inspect"
	"github.com/voxelcore/regionpool/internal/metrics"
	"github.com/voxelcore/regionpool/internal/pool"
	"github.com/voxelcore/regionpool/internal/scenario"
)

var (
	allocColor = color.New(color.FgGreen)
	gapColor   = color.New(color.FgHiBlack)
	errColor   = color.New(color.FgHiRed)
)

func main() {
	app := &cli.App{
		Name:    "poolctl",
		Usage:   "exercise a fixed-region memory pool allocator",
		Version: poolcli.Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "enable debug logging"},
			&cli.BoolFlag{Name: "json", Usage: "print segment/version output as JSON"},
			&cli.StringFlag{Name: "config", Usage: "path to a poolctl config file (JSON: verbose, default_policy, work_dir)"},
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "execute a JSON scenario file against one pool",
				ArgsUsage: "<scenario.json>",
				Action:    runCommand,
			},
			{
				Name:   "demo",
				Usage:  "run the built-in best-fit/first-fit divergence demo",
				Action: demoCommand,
			},
			{
				Name:   "serve",
				Usage:  "expose pool metrics on an HTTP /metrics endpoint",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "addr", Value: ":9090", Usage: "listen address"}},
				Action: serveCommand,
			},
			{
				Name:   "version",
				Usage:  "print version information",
				Action: versionCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "poolctl: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the --config file, if any, and applies its
// DefaultPolicy/Verbose as the baseline that an explicit --verbose flag or a
// scenario's own "policy" field still take precedence over.
func loadConfig(c *cli.Context) (*poolcli.Config, error) {
	cfg, err := poolcli.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

func versionCommand(c *cli.Context) error {
	poolcli.PrintVersion("poolctl", c.Bool("json"))
	return nil
}

func runCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("usage: poolctl run <scenario.json>", 1)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger, err := poolcli.NewLogger(c.Bool("verbose") || cfg.Verbose)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	s, err := scenario.Load(c.Args().First())
	if err != nil {
		return err
	}

	if s.Policy == "" {
		s.Policy = cfg.DefaultPolicy
	}

	steps, runErr := scenario.Run(s)

	for i, step := range steps {
		logger.Debug("executed operation", zap.Int("index", i), zap.String("op", step.Operation.Op))

		if step.Operation.Op == "inspect" {
			if err := renderSegments(step.Segments, c.Bool("json")); err != nil {
				return err
			}
		}

		if step.Err != nil {
			errColor.Fprintf(os.Stderr, "step %d (%s): %v\n", i, step.Operation.Op, step.Err)
		}
	}

	return runErr
}

func demoCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	policy := cfg.DefaultPolicy
	if policy == "" {
		policy = "best-fit"
	}

	s := &scenario.Scenario{
		TotalSize: 100,
		Policy:    policy,
		Operations: []scenario.Operation{
			{Op: "allocate", Size: 30},
			{Op: "allocate", Size: 30},
			{Op: "allocate", Size: 40},
			{Op: "release", Handle: 0},
			{Op: "release", Handle: 2},
			{Op: "inspect"},
			{Op: "allocate", Size: 25},
			{Op: "inspect"},
		},
	}

	steps, runErr := scenario.Run(s)
	for _, step := range steps {
		if step.Operation.Op == "inspect" {
			if err := renderSegments(step.Segments, c.Bool("json")); err != nil {
				return err
			}
		}
	}

	return runErr
}

func serveCommand(c *cli.Context) error {
	reg := prometheus.NewRegistry()
	observer := metrics.NewRegistry(reg)

	p, err := pool.Open(1<<20, pool.BestFit)
	if err != nil {
		return err
	}
	p.SetObserver(observer)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	addr := c.String("addr")
	fmt.Printf("serving pool metrics on %s/metrics\n", addr)

	return http.ListenAndServe(addr, mux)
}

func renderSegments(segments []inspect.Segment, jsonOutput bool) error {
	if jsonOutput {
		out, err := inspect.RenderJSON(segments)
		if err != nil {
			return fmt.Errorf("render segments as json: %w", err)
		}

		fmt.Println(out)
		return nil
	}

	for _, line := range strings.Split(strings.TrimRight(inspect.Render(segments), "\n"), "\n") {
		if line == "" {
			continue
		}

		if strings.HasSuffix(line, "alloc") {
			allocColor.Println(line)
		} else {
			gapColor.Println(line)
		}
	}

	return nil
}
