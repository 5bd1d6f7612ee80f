package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Celinna/mobile-robotics/pkg/config"
	"github.com/Celinna/mobile-robotics/pkg/hardware"
	"github.com/Celinna/mobile-robotics/pkg/logging"
	"github.com/Celinna/mobile-robotics/pkg/obstacle"
)

func main() {
	app := &cli.App{
		Name:  "proxtest",
		Usage: "print proximity readings and whether they count as an obstacle",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE`"},
			&cli.DurationFlag{Name: "interval", Value: 200 * time.Millisecond},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return err
		}
	}
	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt)
	defer cancel()

	hw, err := hardware.Open(ctx, cfg.Transport, logging.NewDevelopment())
	if err != nil {
		fmt.Println("Failed to open robot ", err)
		return err
	}
	defer hw.Shutdown()

	sensor := obstacle.Sensor{T: hw, Threshold: func() int { return cfg.Robot.WallThreshold }}
	ticker := time.NewTicker(c.Duration("interval"))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		prox, err := sensor.Read()
		if err != nil {
			fmt.Println("Failed to read sensors", err)
			continue
		}
		fmt.Println(prox, obstacle.Detect(prox, cfg.Robot.WallThreshold))
	}
}
