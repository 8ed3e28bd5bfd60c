package config

import "runtime"

const (
	defaultOutputPrefix = "output"
	defaultOutputDir    = "separated_output"
	defaultFormat       = "wav"
	defaultMP3Bitrate   = 320
	defaultModel        = "htdemucs"
	defaultShifts       = 1
	defaultOverlap      = 0.25
	defaultFFmpeg       = "ffmpeg"
	defaultDemucs       = "demucs"
	defaultLogLevel     = "info"
)

// Default 返回默认配置
func Default() Config {
	return Config{
		Frequency: Frequency{
			OutputPrefix: defaultOutputPrefix,
			Workers:      runtime.NumCPU(),
		},
		Source: Source{
			OutputDir: defaultOutputDir,
			Model:     defaultModel,
			Shifts:    defaultShifts,
			Overlap:   defaultOverlap,
		},
		Output: Output{
			Format:     defaultFormat,
			MP3Bitrate: defaultMP3Bitrate,
		},
		Tools: Tools{
			FFmpeg: defaultFFmpeg,
			Demucs: defaultDemucs,
		},
		Logging: Logging{
			Level: defaultLogLevel,
		},
	}
}
