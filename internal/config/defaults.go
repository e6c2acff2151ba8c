package config

const (
	defaultConfigPath      = "~/.config/micrec/config.toml"
	defaultOutputDir       = "~/Recordings"
	defaultGraceSeconds    = 5
	defaultSampleRate      = 44100
	defaultChannels        = 1
	defaultFormat          = "wav"
	defaultQuality         = "medium"
	defaultSilenceSeconds  = 5
	defaultLogFormat       = "auto"
	defaultLogLevel        = "info"
	maxSampleRate          = 192000
	maxChannels            = 8
	maxGraceSeconds        = 120
	envEncoderPathOverride = "MICREC_FFMPEG"
	envDeviceOverride      = "MICREC_DEVICE"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Encoder: Encoder{
			GraceSeconds: defaultGraceSeconds,
		},
		Capture: Capture{
			SampleRate:     defaultSampleRate,
			Channels:       defaultChannels,
			Format:         defaultFormat,
			Quality:        defaultQuality,
			SilenceSeconds: defaultSilenceSeconds,
		},
		Paths: Paths{
			TempDir:   defaultTempDir(),
			StateDir:  defaultStateDir(),
			OutputDir: defaultOutputDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
