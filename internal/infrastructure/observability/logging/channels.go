// Package logging provides structured logging channels for cartwatch
// operations.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Channel represents a logical logging channel for different system components
type Channel string

const (
	// System channels
	ChannelSystem   Channel = "system"   // General system operations
	ChannelStartup  Channel = "startup"  // Application startup and initialization
	ChannelShutdown Channel = "shutdown" // Application shutdown and cleanup

	// Business logic channels
	ChannelTracking Channel = "tracking" // Cart tracking ingestion
	ChannelRecovery Channel = "recovery" // Recovery token resolution and replay
	ChannelReminder Channel = "reminder" // Recovery reminder pipeline
	ChannelEmail    Channel = "email"    // Outbound transactional email

	// Infrastructure channels
	ChannelDatabase Channel = "database" // Database operations and queries
	ChannelSSE      Channel = "sse"      // Server-sent events and real-time

	// Performance and debugging channels
	ChannelPerf  Channel = "performance" // Performance monitoring
	ChannelDebug Channel = "debug"       // Debug information
)

// ChanneledLogger provides structured logging with multiple channels
type ChanneledLogger struct {
	channels map[Channel]*slog.Logger
	config   *LoggerConfig
	configMu sync.RWMutex
}

// LoggerConfig contains configuration options for the channeled logger
type LoggerConfig struct {
	OutputToFile    bool   `json:"outputToFile"`
	OutputToConsole bool   `json:"outputToConsole"`
	LogDirectory    string `json:"logDirectory"`

	JSONFormat    bool `json:"jsonFormat"`
	IncludeSource bool `json:"includeSource"`

	DefaultLevel  slog.Level             `json:"defaultLevel"`
	ChannelLevels map[Channel]slog.Level `json:"channelLevels"`
}

// DefaultLoggerConfig returns a sensible default configuration
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		OutputToFile:    true,
		OutputToConsole: true,
		LogDirectory:    "logs",
		JSONFormat:      true,
		IncludeSource:   true,
		DefaultLevel:    slog.LevelInfo,
		ChannelLevels:   make(map[Channel]slog.Level),
	}
}

// NewChanneledLogger creates a new channeled logger with the given configuration
func NewChanneledLogger(config *LoggerConfig) (*ChanneledLogger, error) {
	if config == nil {
		config = DefaultLoggerConfig()
	}

	logger := &ChanneledLogger{
		channels: make(map[Channel]*slog.Logger),
		config:   config,
	}

	if config.OutputToFile {
		if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	channels := []Channel{
		ChannelSystem, ChannelStartup, ChannelShutdown,
		ChannelTracking, ChannelRecovery, ChannelReminder, ChannelEmail,
		ChannelDatabase, ChannelSSE,
		ChannelPerf, ChannelDebug,
	}

	for _, channel := range channels {
		channelLogger, err := logger.createChannelLogger(channel)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger for channel %s: %w", channel, err)
		}
		logger.channels[channel] = channelLogger
	}

	return logger, nil
}

// createChannelLogger creates a slog.Logger for a specific channel
func (cl *ChanneledLogger) createChannelLogger(channel Channel) (*slog.Logger, error) {
	level := cl.config.DefaultLevel
	if channelLevel, exists := cl.config.ChannelLevels[channel]; exists {
		level = channelLevel
	}

	var writers []io.Writer

	if cl.config.OutputToConsole {
		writers = append(writers, os.Stdout)
	}

	if cl.config.OutputToFile {
		filename := fmt.Sprintf("%s.log", string(channel))
		path := filepath.Join(cl.config.LogDirectory, filename)

		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
		}

		writers = append(writers, file)
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = os.Stdout
	case 1:
		writer = writers[0]
	default:
		writer = io.MultiWriter(writers...)
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cl.config.IncludeSource,
	}

	var handler slog.Handler
	if cl.config.JSONFormat {
		handler = slog.NewJSONHandler(writer, handlerOpts)
	} else {
		handler = slog.NewTextHandler(writer, handlerOpts)
	}

	return slog.New(handler).With(slog.String("channel", string(channel))), nil
}

func (cl *ChanneledLogger) System() *slog.Logger   { return cl.channels[ChannelSystem] }
func (cl *ChanneledLogger) Startup() *slog.Logger  { return cl.channels[ChannelStartup] }
func (cl *ChanneledLogger) Shutdown() *slog.Logger { return cl.channels[ChannelShutdown] }
func (cl *ChanneledLogger) Tracking() *slog.Logger { return cl.channels[ChannelTracking] }
func (cl *ChanneledLogger) Recovery() *slog.Logger { return cl.channels[ChannelRecovery] }
func (cl *ChanneledLogger) Reminder() *slog.Logger { return cl.channels[ChannelReminder] }
func (cl *ChanneledLogger) Email() *slog.Logger    { return cl.channels[ChannelEmail] }
func (cl *ChanneledLogger) Database() *slog.Logger { return cl.channels[ChannelDatabase] }
func (cl *ChanneledLogger) SSE() *slog.Logger      { return cl.channels[ChannelSSE] }
func (cl *ChanneledLogger) Perf() *slog.Logger     { return cl.channels[ChannelPerf] }
func (cl *ChanneledLogger) Debug() *slog.Logger    { return cl.channels[ChannelDebug] }

// GetChannel returns a logger for a specific channel
func (cl *ChanneledLogger) GetChannel(channel Channel) *slog.Logger {
	if logger, exists := cl.channels[channel]; exists {
		return logger
	}
	return cl.channels[ChannelSystem]
}

// WithSession returns a logger with session context
func (cl *ChanneledLogger) WithSession(channel Channel, sessionID string) *slog.Logger {
	return cl.GetChannel(channel).With(slog.String("sessionId", sanitizeSessionID(sessionID)))
}

// LogSlowQuery logs a slow database query
func (cl *ChanneledLogger) LogSlowQuery(query string, duration time.Duration) {
	cl.Database().Warn("Slow query detected",
		slog.String("query", query),
		slog.Duration("duration", duration),
	)
}

// SetChannelLevel dynamically sets the log level for a specific channel
func (cl *ChanneledLogger) SetChannelLevel(channel Channel, level slog.Level) error {
	cl.configMu.Lock()
	defer cl.configMu.Unlock()

	if _, exists := cl.channels[channel]; !exists {
		return fmt.Errorf("channel %s does not exist", channel)
	}

	cl.config.ChannelLevels[channel] = level

	newLogger, err := cl.createChannelLogger(channel)
	if err != nil {
		return fmt.Errorf("failed to recreate logger for channel %s: %w", channel, err)
	}
	cl.channels[channel] = newLogger

	cl.System().Info("Channel log level updated dynamically",
		slog.String("channel", string(channel)),
		slog.String("level", level.String()),
	)

	return nil
}

// GetChannelLevels returns the current log levels for all channels.
func (cl *ChanneledLogger) GetChannelLevels() map[string]string {
	cl.configMu.RLock()
	defer cl.configMu.RUnlock()

	levels := make(map[string]string)
	for channel := range cl.channels {
		if level, ok := cl.config.ChannelLevels[channel]; ok {
			levels[string(channel)] = level.String()
		} else {
			levels[string(channel)] = cl.config.DefaultLevel.String()
		}
	}
	return levels
}

// Close closes the logger and flushes any pending writes.
func (cl *ChanneledLogger) Close() error {
	cl.System().Info("Channeled logger shutting down")
	return nil
}

// sanitizeSessionID partially masks session IDs for privacy
func sanitizeSessionID(sessionID string) string {
	if len(sessionID) <= 8 {
		return "********"
	}
	return sessionID[:4] + "****" + sessionID[len(sessionID)-4:]
}
