package config

import (
	"os"
	"path/filepath"

	"songsplitter/internal/bands"
	"songsplitter/internal/types"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
)

// Frequency 频段拆分配置
type Frequency struct {
	OutputPrefix string   `toml:"output_prefix"`
	Bands        []string `toml:"bands"`
	Workers      int      `toml:"workers"`
}

// Source 音源分离配置
type Source struct {
	OutputDir string  `toml:"output_dir"`
	Model     string  `toml:"model"`
	Device    string  `toml:"device"`
	Shifts    int     `toml:"shifts"`
	Overlap   float64 `toml:"overlap"`
}

// Output 输出格式配置
type Output struct {
	Format     string `toml:"format"`
	MP3Bitrate int    `toml:"mp3_bitrate"`
}

// Tools 外部工具路径
type Tools struct {
	FFmpeg string `toml:"ffmpeg"`
	Demucs string `toml:"demucs"`
}

// Logging 日志配置
type Logging struct {
	Level string `toml:"level"`
}

// Config 完整配置
type Config struct {
	Frequency Frequency `toml:"frequency"`
	Source    Source    `toml:"source"`
	Output    Output    `toml:"output"`
	Tools     Tools     `toml:"tools"`
	Logging   Logging   `toml:"logging"`
}

// Load 读取配置文件。path 为空时尝试默认路径，默认路径不存在时返回默认配置。
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
		if path == "" {
			return &cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, errors.Wrapf(err, "读取配置文件失败: %s", path)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "解析配置文件失败: %s", path)
	}
	log.WithField("path", path).Debug("已加载配置文件")

	return &cfg, nil
}

// DefaultPath 返回默认配置文件路径: $XDG_CONFIG_HOME/songsplitter/config.toml
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "songsplitter", "config.toml")
}

// Validate 校验配置
func (c *Config) Validate() error {
	if _, ok := types.ParseOutputFormat(c.Output.Format); !ok {
		return errors.Newf("不支持的输出格式: %q (可选 wav, mp3)", c.Output.Format)
	}
	if c.Output.MP3Bitrate <= 0 {
		return errors.Newf("MP3 码率必须大于 0: %d", c.Output.MP3Bitrate)
	}
	if c.Frequency.Workers < 1 {
		return errors.Newf("并发数必须至少为 1: %d", c.Frequency.Workers)
	}
	if c.Source.Shifts < 1 {
		return errors.Newf("shifts 必须至少为 1: %d", c.Source.Shifts)
	}
	if c.Source.Overlap < 0 || c.Source.Overlap >= 1 {
		return errors.Newf("overlap 必须位于 [0, 1) 区间: %v", c.Source.Overlap)
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return errors.Newf("无效的日志级别: %q", c.Logging.Level)
	}
	if _, err := bands.ParseAll(c.Frequency.Bands); err != nil {
		return err
	}
	return nil
}

// SplitConfig 生成频段拆分配置
func (c *Config) SplitConfig() *types.SplitConfig {
	format, _ := types.ParseOutputFormat(c.Output.Format)
	return &types.SplitConfig{
		OutputPrefix: c.Frequency.OutputPrefix,
		Format:       format,
		MP3Bitrate:   c.Output.MP3Bitrate,
		Workers:      c.Frequency.Workers,
	}
}

// SeparateConfig 生成音源分离配置
func (c *Config) SeparateConfig() *types.SeparateConfig {
	format, _ := types.ParseOutputFormat(c.Output.Format)
	return &types.SeparateConfig{
		OutputDir:  c.Source.OutputDir,
		Format:     format,
		MP3Bitrate: c.Output.MP3Bitrate,
		DemucsBin:  c.Tools.Demucs,
		Model:      c.Source.Model,
		Device:     c.Source.Device,
		Shifts:     c.Source.Shifts,
		Overlap:    c.Source.Overlap,
	}
}
