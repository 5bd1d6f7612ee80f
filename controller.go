package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/Celinna/mobile-robotics/pkg/config"
	"github.com/Celinna/mobile-robotics/pkg/hardware"
	"github.com/Celinna/mobile-robotics/pkg/logging"
	"github.com/Celinna/mobile-robotics/pkg/pose"
	"github.com/Celinna/mobile-robotics/pkg/robot"
	"github.com/Celinna/mobile-robotics/pkg/sound"
	"github.com/Celinna/mobile-robotics/pkg/trace"
	"github.com/Celinna/mobile-robotics/pkg/tunable"
	"github.com/Celinna/mobile-robotics/pkg/vision"
)

func main() {
	app := &cli.App{
		Name:  "thymio",
		Usage: "drive a Thymio through a list of waypoints, avoiding obstacles on the way",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:  "sim",
				Usage: "use the simulated robot whatever the config says",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override the configured log level",
			},
			&cli.StringFlag{
				Name:  "trace",
				Usage: "save a map of the run to `PNG`",
			},
			&cli.BoolFlag{
				Name:  "console",
				Usage: "read tunable adjustments from stdin",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	if c.Bool("sim") {
		cfg.Transport.Kind = config.TransportSim
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if path := c.String("trace"); path != "" {
		cfg.Trace.Path = path
	}
	return cfg, cfg.Validate()
}

func run(c *cli.Context) (err error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logger.Infow("---- Thymio ----", "GOMAXPROCS", runtime.GOMAXPROCS(0))

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(signals)
	go func() {
		select {
		case s := <-signals:
			logger.Infow("signal, shutting down", "signal", s)
			cancel()
		case <-ctx.Done():
		}
	}()

	hw, err := hardware.Open(ctx, cfg.Transport, logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, hw.Shutdown()) }()

	var opts []robot.Option
	opts = append(opts, robot.WithLogger(logger.Named("robot")))

	var recorder *trace.Recorder
	if cfg.Trace.Path != "" {
		recorder = trace.NewRecorder(nil)
		opts = append(opts, robot.WithObserver(recorder))
		defer func() {
			logger.Infow("saving trace", "path", cfg.Trace.Path)
			err = multierr.Append(err, recorder.Render(cfg.Trace.Path, cfg.Camera.MapWidthMM, cfg.Camera.MapHeightMM, 0.5))
		}()
	}
	if cfg.Sounds.Obstacle != "" || cfg.Sounds.Arrived != "" {
		sounds := sound.InitSound(logger.Named("sound"))
		defer close(sounds)
		opts = append(opts, robot.WithObserver(sound.Cues{
			Sounds:   sounds,
			Obstacle: cfg.Sounds.Obstacle,
			Arrived:  cfg.Sounds.Arrived,
		}))
	}

	r, err := robot.New(hw, cfg.RobotConfig(), opts...)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, r.Close()) }()

	targets := cfg.Targets()
	relocalise := func() bool { return false }
	if cfg.Camera.Enabled {
		cam, err := openCamera(cfg.Camera)
		if err != nil {
			return err
		}
		defer cam.Close()

		tracker := pose.NewTracker(nil, cfg.Camera.PollInterval, cam, r.Store(), logger.Named("tracker"))
		if recorder != nil {
			tracker.OnUpdate = recorder.Localized
		}
		if !tracker.Poll() {
			logger.Warn("robot not visible at start, using the configured initial pose")
		}
		relocalise = tracker.Poll

		if cfg.Camera.GoalTemplate != "" {
			goal, err := cam.FindGoal(cfg.Camera.GoalTemplate)
			if err != nil {
				return err
			}
			logger.Infow("found goal", "goal", goal)
			targets = append(targets, goal)
		}
		tracker.Start()
		defer tracker.Stop()
	}

	if c.Bool("console") {
		go tunable.LoopReadingConsole(ctx, os.Stdin, r.Tunables())
	}

	r.Start()
	return r.Navigate(ctx, targets, relocalise)
}

func openCamera(cfg config.Camera) (*vision.Camera, error) {
	unwarper, err := vision.NewUnwarper(cfg.MapCorners, cfg.MapWidthPx, cfg.MapHeightPx, cfg.MapWidthMM, cfg.MapHeightMM)
	if err != nil {
		return nil, err
	}
	cam, err := vision.OpenCamera(cfg.Device, unwarper)
	if err != nil {
		_ = unwarper.Close()
		return nil, err
	}
	return cam, nil
}
