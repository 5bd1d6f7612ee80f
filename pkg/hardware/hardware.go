// Package hardware connects to the robot described by the transport configuration.
package hardware

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Celinna/mobile-robotics/pkg/config"
	"github.com/Celinna/mobile-robotics/pkg/motionmodel"
	"github.com/Celinna/mobile-robotics/pkg/transport"
	"github.com/Celinna/mobile-robotics/pkg/transport/asebahttp"
	"github.com/Celinna/mobile-robotics/pkg/transport/sim"
)

// Hardware is an open connection to the robot.
type Hardware struct {
	transport.Interface

	logger *zap.SugaredLogger
	cancel context.CancelFunc
	bridge *asebahttp.Bridge

	shutdownOnce sync.Once
	shutdownErr  error
}

// Open connects to the robot, starting the asebahttp bridge first if configured.
func Open(ctx context.Context, cfg config.Transport, logger *zap.SugaredLogger) (*Hardware, error) {
	h := &Hardware{logger: logger}
	switch cfg.Kind {
	case config.TransportSim:
		logger.Info("using simulated robot")
		h.Interface = sim.New(nil, logger.Named("sim"))
		return h, nil
	case config.TransportAsebaHTTP:
	default:
		return nil, errors.Errorf("unknown transport %q", cfg.Kind)
	}

	if cfg.Launch {
		var bridgeCtx context.Context
		bridgeCtx, h.cancel = context.WithCancel(ctx)
		bridge, err := asebahttp.Launch(bridgeCtx, cfg.BridgeBinary, cfg.BridgeArgs, logger.Named("asebahttp"))
		if err != nil {
			h.cancel()
			return nil, err
		}
		h.bridge = bridge
	}
	client, err := asebahttp.New(cfg.URL, cfg.Node, cfg.Timeout)
	if err != nil {
		h.Shutdown()
		return nil, err
	}
	h.Interface = client
	if err := h.waitForRobot(ctx, 10*time.Second); err != nil {
		h.Shutdown()
		return nil, err
	}
	logger.Infow("connected to robot", "url", cfg.URL)
	return h, nil
}

// waitForRobot polls until the bridge answers; a freshly launched bridge takes a
// moment to find the robot.
func (h *Hardware) waitForRobot(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		_, err := h.GetVar(transport.ProxHorizontal)
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.Wrap(err, "robot not reachable")
		}
		h.logger.Debugw("waiting for robot", "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
}

// Shutdown zeroes the motors and stops the bridge, if we started one.
func (h *Hardware) Shutdown() error {
	h.shutdownOnce.Do(func() {
		if h.Interface != nil {
			h.logger.Info("zeroing motors")
			h.shutdownErr = multierr.Combine(
				h.SetVar(transport.LeftTarget, motionmodel.EncodeSpeed(0)),
				h.SetVar(transport.RightTarget, motionmodel.EncodeSpeed(0)),
			)
		}
		if h.cancel != nil {
			h.cancel()
			if h.bridge != nil {
				_ = h.bridge.Wait()
			}
		}
	})
	return h.shutdownErr
}
