package config

import flag "github.com/spf13/pflag"

type PlayerConfig struct {
	Player Player
}

type Player struct {
	Debug      bool
	Tag        string
	Monitoring Monitoring
	Stream     Stream
	Video      Video
	Audio      Audio
	Window     Window
	Source     Source
}

// Stream is the identity filter for inbound video frames.
type Stream struct {
	UserID string
	Type   int
}

type Video struct {
	// Scale is one of: fit, crop, stretch
	Scale string
	// Rotation in degrees, one of: 0, 90, 180, 270
	Rotation uint
	// FlipVertical mirrors the frame over the X-axis
	FlipVertical bool
	// Queue is the render worker command queue size
	Queue int
}

type Audio struct {
	// BufferSamples overrides the sink device buffer size (0 = auto)
	BufferSamples int
}

type Window struct {
	Width  int
	Height int
	Title  string
}

// Source holds the synthetic test stream params of the demo app.
type Source struct {
	Width      int
	Height     int
	Fps        int
	SampleRate int
	Channels   int
}

type Monitoring struct {
	Port             int
	URLPrefix        string
	MetricEnabled    bool `fig:"metric_enabled"`
	ProfilingEnabled bool `fig:"profiling_enabled"`
}

func (c *Monitoring) IsEnabled() bool { return c.MetricEnabled || c.ProfilingEnabled }

// allows custom config path
var playerConfigPath string

func NewPlayerConfig() (conf PlayerConfig) {
	err := LoadConfig(&conf, playerConfigPath)
	if err != nil {
		panic(err)
	}
	return
}

// ParseFlags updates config values from passed runtime flags.
// Define own flags with default value set to the current config param.
// Don't forget to call flag.Parse().
func (c *PlayerConfig) ParseFlags() {
	flag.BoolVar(&c.Player.Debug, "debug", c.Player.Debug, "Enable debug logging")
	flag.IntVar(&c.Player.Monitoring.Port, "monitoring.port", c.Player.Monitoring.Port, "Monitoring server port")
	flag.StringVar(&c.Player.Stream.UserID, "user", c.Player.Stream.UserID, "Rendered stream user id")
	flag.StringVar(&playerConfigPath, "conf", playerConfigPath, "Set custom configuration file path")
	flag.Parse()
}
