package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"songsplitter/internal/config"
	"songsplitter/internal/decoder"
	"songsplitter/internal/logging"

	"github.com/cockroachdb/errors"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const (
	modeFrequency = "frequency"
	modeSource    = "source"
)

var version = "1.0.0"

// options 命令行参数，显式设置的参数会覆盖配置文件
type options struct {
	configPath string
	logLevel   string
	quiet      bool
	ffmpegBin  string
	demucsBin  string
	workers    int

	mode         string
	outputPrefix string
	bands        []string
	outputDir    string
	format       string
	mp3Bitrate   int
	model        string
	device       string
	jsonOutput   bool
}

// Execute 执行根命令，Ctrl+C 会取消正在进行的任务
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "songsplitter <audio_file>",
		Short: "按频段拆分音频，或将音频分离为鼓、贝斯、人声等音轨",
		Long: `songsplitter 是一个用于处理音乐音频文件的命令行工具。

frequency 模式使用低通/高通滤波将音频拆分为多个频段，
默认频段为 low (0-500Hz)、mid (500-4000Hz)、high (4000-20000Hz)。

source 模式调用 demucs 预训练模型 (htdemucs) 将音频分离为
drums、bass、other、vocals 四个音轨。`,
		Example: `  songsplitter song.wav --mode frequency --bands 0-500,500-4000
  songsplitter song.mp3 --mode source --format mp3 --mp3_bitrate 256`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch opts.mode {
			case modeFrequency:
				return opts.runFrequency(cmd, args[0])
			case modeSource:
				return opts.runSource(cmd, args[0])
			default:
				return errors.Newf("无效的模式: %q (可选 %s, %s)", opts.mode, modeFrequency, modeSource)
			}
		},
	}

	persistent := rootCmd.PersistentFlags()
	persistent.StringVar(&opts.configPath, "config", "", "配置文件路径 (默认 $XDG_CONFIG_HOME/songsplitter/config.toml)")
	persistent.StringVar(&opts.logLevel, "log-level", "info", "日志级别: debug, info, warn, error")
	persistent.BoolVarP(&opts.quiet, "quiet", "q", false, "静默模式，仅输出错误")
	persistent.StringVar(&opts.ffmpegBin, "ffmpeg", "ffmpeg", "ffmpeg 可执行文件")
	persistent.StringVar(&opts.demucsBin, "demucs", "demucs", "demucs 可执行文件")
	persistent.IntVarP(&opts.workers, "workers", "j", runtime.NumCPU(), "并发处理频段数量")

	rootCmd.Flags().StringVar(&opts.mode, "mode", "", "处理模式: frequency 按频段拆分，source 分离音源")
	_ = rootCmd.MarkFlagRequired("mode")
	addFrequencyFlags(rootCmd, opts)
	addSourceFlags(rootCmd, opts)
	addFormatFlags(rootCmd, opts)

	rootCmd.SetVersionTemplate("songsplitter version {{.Version}}\n")

	rootCmd.AddCommand(
		newFrequencyCommand(opts),
		newSourceCommand(opts),
		newAnalyzeCommand(opts),
		newDoctorCommand(opts),
	)

	return rootCmd
}

func addFrequencyFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVar(&opts.outputPrefix, "output_prefix", "output", "频段输出文件前缀 (例如 'song' 生成 'song_low.wav')")
	cmd.Flags().StringArrayVar(&opts.bands, "bands", nil, "自定义频段 'low_hz-high_hz'，可重复或以逗号/空格分隔 (例如 '0-500,500-4000')")
}

func addSourceFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVar(&opts.outputDir, "output_dir", "separated_output", "分离音轨的输出目录")
	cmd.Flags().StringVar(&opts.model, "model", "htdemucs", "demucs 预训练模型名称")
	cmd.Flags().StringVar(&opts.device, "device", "", "推理设备 (cpu, cuda)，默认自动选择")
}

func addFormatFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVar(&opts.format, "format", "wav", "输出格式: wav 或 mp3")
	cmd.Flags().IntVar(&opts.mp3Bitrate, "mp3_bitrate", 320, "MP3 输出码率 (kbps)")
}

// resolve 加载配置文件，应用显式设置的参数并初始化日志
func (o *options) resolve(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
	if flags.Changed("ffmpeg") {
		cfg.Tools.FFmpeg = o.ffmpegBin
	}
	if flags.Changed("demucs") {
		cfg.Tools.Demucs = o.demucsBin
	}
	if flags.Changed("workers") {
		cfg.Frequency.Workers = o.workers
	}
	if flags.Changed("output_prefix") {
		cfg.Frequency.OutputPrefix = o.outputPrefix
	}
	if flags.Changed("bands") {
		cfg.Frequency.Bands = o.bands
	}
	if flags.Changed("output_dir") {
		cfg.Source.OutputDir = o.outputDir
	}
	if flags.Changed("model") {
		cfg.Source.Model = o.model
	}
	if flags.Changed("device") {
		cfg.Source.Device = o.device
	}
	if flags.Changed("format") {
		cfg.Output.Format = o.format
	}
	if flags.Changed("mp3_bitrate") {
		cfg.Output.MP3Bitrate = o.mp3Bitrate
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logging.Setup(cmd.ErrOrStderr(), cfg.Logging.Level, o.quiet); err != nil {
		return nil, err
	}

	return cfg, nil
}

// checkInput 检查输入文件是否存在
func checkInput(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return errors.Newf("音频文件不存在: %s", path)
	}
	if err != nil {
		return errors.Wrapf(err, "无法访问音频文件: %s", path)
	}
	if info.IsDir() {
		return errors.Newf("输入路径是目录而不是音频文件: %s", path)
	}
	return nil
}

func newDecoderRegistry(cfg *config.Config) *decoder.DecoderRegistry {
	registry := decoder.NewDecoderRegistry()
	registry.SetFallback(decoder.NewFFmpegDecoder(cfg.Tools.FFmpeg))
	return registry
}

// showProgress 仅在交互终端且非静默模式下显示进度条
func (o *options) showProgress() bool {
	if o.quiet {
		return false
	}
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
