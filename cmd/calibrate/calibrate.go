package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"periph.io/x/periph/conn/physic"

	"github.com/Celinna/mobile-robotics/pkg/config"
	"github.com/Celinna/mobile-robotics/pkg/hardware"
	"github.com/Celinna/mobile-robotics/pkg/logging"
	"github.com/Celinna/mobile-robotics/pkg/motionmodel"
	"github.com/Celinna/mobile-robotics/pkg/transport"
)

var scanner *bufio.Scanner

func init() {
	scanner = bufio.NewScanner(os.Stdin)
}

func main() {
	app := &cli.App{
		Name:  "calibrate",
		Usage: "measure the linear factor and wheel separation of a Thymio",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE`"},
			&cli.IntFlag{Name: "speed", Value: 100, Usage: "speed setting to drive at"},
			&cli.DurationFlag{Name: "duration", Value: 4 * time.Second, Usage: "how long each run lasts"},
			&cli.IntFlag{Name: "runs", Value: 3, Usage: "runs of each kind"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func prompt(question string) float64 {
	for {
		fmt.Println(question)
		if !scanner.Scan() {
			panic(scanner.Err())
		}
		v, err := strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			fmt.Printf("error: %v, please try again:\n", err)
			continue
		}
		return v
	}
}

func run(c *cli.Context) (err error) {
	fmt.Println("---- Movement Calibration ----")
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		if cfg, err = config.Load(path); err != nil {
			return err
		}
	}
	logger := logging.NewDevelopment()

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	hw, err := hardware.Open(ctx, cfg.Transport, logger)
	if err != nil {
		return err
	}
	defer func() {
		fmt.Println("Zeroing motors for shut down")
		err = multierr.Append(err, hw.Shutdown())
	}()
	motors := transport.Motors{T: hw}
	speed := c.Int("speed")
	duration := c.Duration("duration")

	drive := func(left, right int) error {
		if err := motors.Move(left, right); err != nil {
			return err
		}
		time.Sleep(duration)
		return motors.Stop()
	}

	var sumLF float64
	for i := 0; i < c.Int("runs"); i++ {
		fmt.Printf("Straight run %v/%v: place the robot and press enter\n", i+1, c.Int("runs"))
		scanner.Scan()
		if err := drive(speed, speed); err != nil {
			return err
		}
		lf, err := motionmodel.FitLinearFactor(prompt("Enter straight ahead displacement (mm):"), speed, duration)
		if err != nil {
			return err
		}
		fmt.Printf("linear factor %.5f mm/s per unit\n", lf)
		sumLF += lf
	}
	if c.Int("runs") == 0 {
		return errors.New("need at least one run")
	}
	lf := sumLF / float64(c.Int("runs"))

	var sumSep physic.Distance
	for i := 0; i < c.Int("runs"); i++ {
		fmt.Printf("Spin %v/%v: place the robot and press enter\n", i+1, c.Int("runs"))
		scanner.Scan()
		if err := drive(-speed, speed); err != nil {
			return err
		}
		sep, err := motionmodel.FitWheelSeparation(prompt("Enter angle turned (degrees, anticlockwise):"), speed, duration, lf)
		if err != nil {
			return err
		}
		fmt.Printf("effective wheel separation %v\n", sep)
		sumSep += sep
	}

	fmt.Println("")
	fmt.Println("Calibration:")
	fmt.Printf("robot:\n  linear_factor: %.5f\n  wheel_separation_mm: %.1f\n",
		lf, float64(sumSep/physic.Distance(c.Int("runs")))/float64(physic.MilliMetre))
	return nil
}
