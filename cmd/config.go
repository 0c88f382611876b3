package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/go-sdi12/logger"
	"github.com/arloliu/go-sdi12/sdi12"
)

// Config is the bridge daemon configuration file.
type Config struct {
	Serial    SerialConfig   `yaml:"serial"`
	Addresses []string       `yaml:"addresses"`
	Protocol  ProtocolConfig `yaml:"protocol"`
	Identity  IdentityConfig `yaml:"identity"`
	Monitor   MonitorConfig  `yaml:"monitor"`
	LogLevel  string         `yaml:"log_level"`
}

type SerialConfig struct {
	Device string `yaml:"device"`
}

type ProtocolConfig struct {
	MeasureWait      int `yaml:"measure_wait"`
	MeasureValues    int `yaml:"measure_values"`
	VerifyValues     int `yaml:"verify_values"`
	ConcurrentValues int `yaml:"concurrent_values"`
	SRQWindow        int `yaml:"srq_window"`
}

type IdentityConfig struct {
	Vendor   string `yaml:"vendor"`
	Model    string `yaml:"model"`
	Firmware string `yaml:"firmware"`
}

type MonitorConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// DefaultConfig returns a configuration matching the engine defaults with a
// single address '0'.
func DefaultConfig() *Config {
	return &Config{
		Serial:    SerialConfig{Device: "/dev/ttyS0"},
		Addresses: []string{"0"},
		Protocol: ProtocolConfig{
			MeasureWait:      sdi12.DefaultMeasureWait,
			MeasureValues:    sdi12.DefaultMeasureValueCount,
			VerifyValues:     sdi12.DefaultVerifyValueCount,
			ConcurrentValues: sdi12.DefaultConcurrentValueCount,
			SRQWindow:        sdi12.DefaultSRQWindowCount,
		},
		Identity: IdentityConfig{
			Vendor:   sdi12.DefaultVendor,
			Model:    sdi12.DefaultModel,
			Firmware: sdi12.DefaultFirmware,
		},
		Monitor: MonitorConfig{
			Enabled:    false,
			ListenAddr: ":9120",
		},
		LogLevel: "info",
	}
}

// LoadConfig reads a YAML configuration file over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.Serial.Device == "" {
		return fmt.Errorf("serial.device is required")
	}
	if len(c.Addresses) == 0 {
		return fmt.Errorf("at least one address is required")
	}
	for _, a := range c.Addresses {
		if len(a) != 1 {
			return fmt.Errorf("address %q must be a single character", a)
		}
	}
	if _, err := parseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Monitor.Enabled && c.Monitor.ListenAddr == "" {
		return fmt.Errorf("monitor.listen_addr is required when the monitor is enabled")
	}

	return nil
}

// addrTable builds the engine address table from the configured addresses.
func (c *Config) addrTable() (*sdi12.AddrTable, error) {
	addrs := make([]byte, len(c.Addresses))
	for i, a := range c.Addresses {
		addrs[i] = a[0]
	}

	return sdi12.NewAddrTable(addrs...)
}

// engineOptions translates the configuration into engine options.
func (c *Config) engineOptions(l logger.Logger) []sdi12.EngineOption {
	return []sdi12.EngineOption{
		sdi12.WithMeasureWait(c.Protocol.MeasureWait),
		sdi12.WithMeasureValueCount(c.Protocol.MeasureValues),
		sdi12.WithVerifyValueCount(c.Protocol.VerifyValues),
		sdi12.WithConcurrentValueCount(c.Protocol.ConcurrentValues),
		sdi12.WithServiceRequestWindow(c.Protocol.SRQWindow),
		sdi12.WithIdentity(c.Identity.Vendor, c.Identity.Model, c.Identity.Firmware),
		sdi12.WithLogger(l),
	}
}

func parseLogLevel(level string) (logger.LogLevel, error) {
	switch level {
	case "", "info":
		return logger.InfoLevel, nil
	case "debug":
		return logger.DebugLevel, nil
	case "warn":
		return logger.WarnLevel, nil
	case "error":
		return logger.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", level)
	}
}
