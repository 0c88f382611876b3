package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/arloliu/go-sdi12/internal/task"
	"github.com/arloliu/go-sdi12/logger"
	"github.com/arloliu/go-sdi12/monitor"
	"github.com/arloliu/go-sdi12/sdi12"
	"github.com/arloliu/go-sdi12/serialport"
)

// producerPollInterval is how often the demo producer checks for an
// outstanding data request.
const producerPollInterval = 100 * time.Millisecond

func run(ctx context.Context) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	if deviceFlag != "" {
		cfg.Serial.Device = deviceFlag
	}
	if monitorFlag != "" {
		cfg.Monitor.Enabled = true
		cfg.Monitor.ListenAddr = monitorFlag
	}

	level, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	l := logger.GetLogger()

	table, err := cfg.addrTable()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := cfg.engineOptions(l)

	var mon *monitor.Server
	if cfg.Monitor.Enabled {
		mon = monitor.NewServer(cfg.Monitor.ListenAddr, nil, l)
		opts = append(opts, sdi12.WithTraceSink(mon))
	}

	port, err := serialport.Open(cfg.Serial.Device)
	if err != nil {
		return err
	}

	runner, err := serialport.NewRunner(ctx, port, table, opts...)
	if err != nil {
		_ = port.Close()
		return err
	}

	if mon != nil {
		mon.BindMetrics(runner.Engine().Metrics())
		if err := mon.Start(ctx); err != nil {
			_ = port.Close()
			return fmt.Errorf("start monitor: %w", err)
		}
		defer mon.Stop()
	}

	if err := runner.Start(); err != nil {
		_ = port.Close()
		return fmt.Errorf("start runner: %w", err)
	}
	defer runner.Stop()

	// the demo producer stands in for the wireless receiver until one is
	// wired up: it answers every data request with a fixed reading
	mgr := task.NewManager(ctx, l)
	if _, err := mgr.StartInterval("demo-producer", demoProducer(runner.Engine(), l), producerPollInterval, false); err != nil {
		return err
	}
	defer func() {
		mgr.Stop()
		mgr.Wait()
	}()

	l.Info("bridge running",
		"device", cfg.Serial.Device,
		"addresses", cfg.Addresses,
		"monitor", cfg.Monitor.Enabled,
	)

	<-ctx.Done()
	l.Info("shutting down")

	return nil
}

// demoProducer supplies a canned reading for any outstanding request.
func demoProducer(eng *sdi12.Engine, l logger.Logger) task.Func {
	return func() bool {
		node, ok := eng.PendingRequest()
		if !ok {
			return true
		}

		payload := fmt.Sprintf("+%d.000+0.000", node)
		buf := make([]byte, 1+len(payload)+8)
		buf[0] = 'x'
		copy(buf[1:], payload)

		if err := eng.SupplyData(buf); err != nil {
			l.Warn("demo producer supply failed", "err", err)
		} else {
			l.Debug("demo producer supplied reading", "node", node)
		}

		return true
	}
}
