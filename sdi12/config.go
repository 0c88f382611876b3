package sdi12

import (
	"fmt"
	"time"

	"github.com/arloliu/go-sdi12/logger"
)

// Wire timing constants per the SDI-12 v1.3 line discipline.
const (
	// BreakMinDuration is the minimum low pulse accepted as a break.
	BreakMinDuration = 12 * time.Millisecond
	// BreakWindow is the upper bound on a break (and on several waits)
	// before the line is considered faulty.
	BreakWindow = 100 * time.Millisecond
	// MarkTestDuration is the minimum mark time after a break before the
	// first command character may start.
	MarkTestDuration = 8190 * time.Microsecond
	// PreResponseMark is the mark time held between a received command and
	// the first response byte.
	PreResponseMark = 8450 * time.Microsecond
	// InterCharTimeout is the maximum gap between received command
	// characters (one character time plus allowed mark).
	InterCharTimeout = 12 * time.Millisecond
	// FirstDataCharTimeout is the failsafe for completing the first
	// character of a breakless data command (8.33 ms full character).
	FirstDataCharTimeout = 10 * time.Millisecond
	// PostSRQWindow is the interval after a service request in which the
	// host may send its data command without a new break.
	PostSRQWindow = 85 * time.Millisecond
	// DataBreakFailsafe bounds the wait for a post-window data break.
	DataBreakFailsafe = 200 * time.Millisecond
	// SRQPollInterval is the period at which the engine checks for producer
	// data during the service request window.
	SRQPollInterval = 100 * time.Millisecond
)

// Defaults for configurable engine behavior.
const (
	// DefaultMeasureWait is the advertised seconds-until-ready for Measure
	// and Verify acknowledgments.
	DefaultMeasureWait = 1
	// DefaultMeasureValueCount is the value count advertised in Measure
	// acknowledgments: the bridge always returns two probe averages.
	DefaultMeasureValueCount = 2
	// DefaultVerifyValueCount is the value count advertised in Verify
	// acknowledgments.
	DefaultVerifyValueCount = 4
	// DefaultConcurrentValueCount is the two-digit value count advertised
	// in Concurrent acknowledgments.
	DefaultConcurrentValueCount = 0
	// DefaultSRQWindowCount is the number of SRQPollInterval passes granted
	// to the producer before the engine gives up waiting.
	DefaultSRQWindowCount = 8

	// DefaultVendor, DefaultModel and DefaultFirmware populate the
	// identification response.
	DefaultVendor   = "AZ_USGS"
	DefaultModel    = "XB10HS"
	DefaultFirmware = "001"
)

// Configuration range limits.
const (
	MinMeasureWait = 1
	MaxMeasureWait = 4

	MaxMeasureValueCount    = 9
	MaxVerifyValueCount     = 9
	MaxConcurrentValueCount = 99

	MinSRQWindowCount = 1
	MaxSRQWindowCount = 50

	// MaxDataPayload is the maximum producer payload length, excluding the
	// address byte and the CRC/CRLF tail.
	MaxDataPayload = 35

	// sdi12Version is the protocol version prefix of the identification
	// response.
	sdi12Version = "13"
	// identSerialFiller pads the identification response where the node
	// serial number would go.
	identSerialFiller = "0000"
)

// EngineConfig holds all configuration for a protocol engine.
type EngineConfig struct {
	// measureWait is the advertised seconds-until-ready (1-4).
	measureWait int

	// value counts advertised in the timed acknowledgments.
	measureValueCount    int
	verifyValueCount     int
	concurrentValueCount int

	// srqWindowCount is the number of 100 ms passes the engine waits for
	// producer data before giving up on the service request.
	srqWindowCount int

	// identification response fields.
	vendor   string
	model    string
	firmware string

	trace  TraceSink
	logger logger.Logger
}

// NewEngineConfig creates an engine configuration with defaults matching the
// deployed bridge firmware, then applies opts in order.
func NewEngineConfig(opts ...EngineOption) (*EngineConfig, error) {
	cfg := &EngineConfig{
		measureWait:          DefaultMeasureWait,
		measureValueCount:    DefaultMeasureValueCount,
		verifyValueCount:     DefaultVerifyValueCount,
		concurrentValueCount: DefaultConcurrentValueCount,
		srqWindowCount:       DefaultSRQWindowCount,
		vendor:               DefaultVendor,
		model:                DefaultModel,
		firmware:             DefaultFirmware,
		logger:               logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// --- Getters ---

// MeasureWait returns the advertised seconds-until-ready.
func (cfg *EngineConfig) MeasureWait() int { return cfg.measureWait }

// MeasureValueCount returns the Measure acknowledgment value count.
func (cfg *EngineConfig) MeasureValueCount() int { return cfg.measureValueCount }

// VerifyValueCount returns the Verify acknowledgment value count.
func (cfg *EngineConfig) VerifyValueCount() int { return cfg.verifyValueCount }

// ConcurrentValueCount returns the Concurrent acknowledgment value count.
func (cfg *EngineConfig) ConcurrentValueCount() int { return cfg.concurrentValueCount }

// SRQWindowCount returns the number of service request window passes.
func (cfg *EngineConfig) SRQWindowCount() int { return cfg.srqWindowCount }

// Vendor returns the identification vendor field.
func (cfg *EngineConfig) Vendor() string { return cfg.vendor }

// Model returns the identification model field.
func (cfg *EngineConfig) Model() string { return cfg.model }

// Firmware returns the identification firmware version field.
func (cfg *EngineConfig) Firmware() string { return cfg.firmware }

// GetLogger returns the configured logger.
func (cfg *EngineConfig) GetLogger() logger.Logger { return cfg.logger }

// --- EngineOption ---

// EngineOption is a functional option for configuring an EngineConfig.
type EngineOption interface {
	apply(*EngineConfig) error
}

type engineOptFunc func(*EngineConfig) error

func (f engineOptFunc) apply(cfg *EngineConfig) error { return f(cfg) }

// WithMeasureWait sets the advertised seconds-until-ready for Measure and
// Verify acknowledgments, bounded to [1, 4] seconds.
func WithMeasureWait(seconds int) EngineOption {
	return engineOptFunc(func(cfg *EngineConfig) error {
		if seconds < MinMeasureWait || seconds > MaxMeasureWait {
			return fmt.Errorf("sdi12: measure wait %d out of range [%d, %d]", seconds, MinMeasureWait, MaxMeasureWait)
		}
		cfg.measureWait = seconds
		return nil
	})
}

// WithMeasureValueCount sets the value count digit of Measure acknowledgments.
func WithMeasureValueCount(n int) EngineOption {
	return engineOptFunc(func(cfg *EngineConfig) error {
		if n < 0 || n > MaxMeasureValueCount {
			return fmt.Errorf("sdi12: measure value count %d out of range [0, %d]", n, MaxMeasureValueCount)
		}
		cfg.measureValueCount = n
		return nil
	})
}

// WithVerifyValueCount sets the value count digit of Verify acknowledgments.
func WithVerifyValueCount(n int) EngineOption {
	return engineOptFunc(func(cfg *EngineConfig) error {
		if n < 0 || n > MaxVerifyValueCount {
			return fmt.Errorf("sdi12: verify value count %d out of range [0, %d]", n, MaxVerifyValueCount)
		}
		cfg.verifyValueCount = n
		return nil
	})
}

// WithConcurrentValueCount sets the two-digit value count of Concurrent
// acknowledgments.
func WithConcurrentValueCount(n int) EngineOption {
	return engineOptFunc(func(cfg *EngineConfig) error {
		if n < 0 || n > MaxConcurrentValueCount {
			return fmt.Errorf("sdi12: concurrent value count %d out of range [0, %d]", n, MaxConcurrentValueCount)
		}
		cfg.concurrentValueCount = n
		return nil
	})
}

// WithServiceRequestWindow sets how many 100 ms passes the engine waits for
// producer data before giving up on sending a service request.
func WithServiceRequestWindow(passes int) EngineOption {
	return engineOptFunc(func(cfg *EngineConfig) error {
		if passes < MinSRQWindowCount || passes > MaxSRQWindowCount {
			return fmt.Errorf("sdi12: service request window %d out of range [%d, %d]", passes, MinSRQWindowCount, MaxSRQWindowCount)
		}
		cfg.srqWindowCount = passes
		return nil
	})
}

// WithIdentity sets the vendor, model and firmware fields of the
// identification response.
func WithIdentity(vendor, model, firmware string) EngineOption {
	return engineOptFunc(func(cfg *EngineConfig) error {
		if len(vendor) == 0 || len(vendor) > 8 {
			return fmt.Errorf("sdi12: vendor %q length out of range [1, 8]", vendor)
		}
		if len(model) == 0 || len(model) > 6 {
			return fmt.Errorf("sdi12: model %q length out of range [1, 6]", model)
		}
		if len(firmware) == 0 || len(firmware) > 3 {
			return fmt.Errorf("sdi12: firmware %q length out of range [1, 3]", firmware)
		}
		cfg.vendor = vendor
		cfg.model = model
		cfg.firmware = firmware
		return nil
	})
}

// WithTraceSink attaches a structured trace sink recording every
// (event, resulting state) pair the engine processes.
func WithTraceSink(sink TraceSink) EngineOption {
	return engineOptFunc(func(cfg *EngineConfig) error {
		cfg.trace = sink
		return nil
	})
}

// WithLogger sets the logger used by the engine.
func WithLogger(l logger.Logger) EngineOption {
	return engineOptFunc(func(cfg *EngineConfig) error {
		if l == nil {
			return fmt.Errorf("sdi12: logger is nil")
		}
		cfg.logger = l
		return nil
	})
}
