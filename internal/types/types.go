package types

import "time"

// OutputFormat 输出文件格式
type OutputFormat string

const (
	FormatWAV OutputFormat = "wav"
	FormatMP3 OutputFormat = "mp3"
)

// ParseOutputFormat 解析输出格式字符串
func ParseOutputFormat(s string) (OutputFormat, bool) {
	switch OutputFormat(s) {
	case FormatWAV:
		return FormatWAV, true
	case FormatMP3:
		return FormatMP3, true
	}
	return "", false
}

// SplitConfig 频段拆分配置
type SplitConfig struct {
	OutputPrefix string       // 输出文件前缀
	Format       OutputFormat // 输出格式
	MP3Bitrate   int          // MP3 码率 (kbps)
	Workers      int          // 并发处理频段数量
	Progress     bool         // 是否显示进度条
}

// SeparateConfig 音源分离配置
type SeparateConfig struct {
	OutputDir  string       // 输出目录
	Format     OutputFormat // 输出格式
	MP3Bitrate int          // MP3 码率 (kbps)
	DemucsBin  string       // demucs 可执行文件
	Model      string       // 预训练模型名称
	Device     string       // 推理设备，空字符串表示由 demucs 自动选择
	Shifts     int
	Overlap    float64
}

// AnalyzerConfig 频谱分析配置
type AnalyzerConfig struct {
	Bands       []Band // 统计能量的频段
	Concurrency int    // 并发数
	Quiet       bool   // 静默模式
	JSONOutput  bool   // JSON输出格式
}

// Band 频段，Low/High 单位为 Hz
type Band struct {
	Low  int    `json:"low" toml:"low"`
	High int    `json:"high" toml:"high"`
	Name string `json:"name" toml:"name"`
}

// Buffer 解码后的 PCM 数据，Samples 为交错排列并归一化到 [-1, 1) 的采样
type Buffer struct {
	SampleRate int
	BitDepth   int
	Channels   int
	Samples    []float64
}

// Frames 返回每个声道的采样帧数
func (b *Buffer) Frames() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration 返回音频时长
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.Frames()) / float64(b.SampleRate) * float64(time.Second))
}

// Nyquist 返回奈奎斯特频率
func (b *Buffer) Nyquist() float64 {
	return float64(b.SampleRate) / 2
}

// BandResult 单个频段的导出结果
type BandResult struct {
	Band       Band    `json:"band"`
	OutputPath string  `json:"outputPath"`
	Peak       float64 `json:"peak"`
}

// StemResult 单个音轨的导出结果
type StemResult struct {
	Stem       string `json:"stem"`
	OutputPath string `json:"outputPath"`
}

// AudioMetadata 音频元数据
type AudioMetadata struct {
	Title    string `json:"title,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Album    string `json:"album,omitempty"`
	Year     string `json:"year,omitempty"`
	Genre    string `json:"genre,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// BandEnergy 频段能量分析结果
type BandEnergy struct {
	Band    Band    `json:"band"`
	Share   float64 `json:"share"`   // 占总能量的比例
	LevelDB float64 `json:"levelDb"` // 相对总能量的电平
}

// AnalysisResult 分析结果
type AnalysisResult struct {
	FilePath          string        `json:"filePath"`
	Status            string        `json:"status"` // "OK", "ERROR"
	Error             string        `json:"error,omitempty"`
	Format            string        `json:"format"`
	Metadata          AudioMetadata `json:"metadata"`
	SampleRate        int           `json:"sampleRate"`
	BitDepth          int           `json:"bitDepth"`
	Channels          int           `json:"channels"`
	Duration          float64       `json:"duration"`
	DominantFrequency float64       `json:"dominantFrequency"`
	MaxFrequency      float64       `json:"maxFrequency"`
	Bands             []BandEnergy  `json:"bands"`
}

// AudioFile 音频文件接口
type AudioFile interface {
	GetFormat() string
	GetSampleRate() int
	GetBitDepth() int
	GetChannels() int
	GetDuration() time.Duration
	GetSamples() ([]float64, error)
	GetMetadata() AudioMetadata
	Close() error
}
