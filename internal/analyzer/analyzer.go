package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"songsplitter/internal/bands"
	"songsplitter/internal/decoder"
	"songsplitter/internal/types"

	"github.com/apex/log"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Analyzer 频段能量分析器
type Analyzer struct {
	config          *types.AnalyzerConfig
	decoderRegistry *decoder.DecoderRegistry
}

// NewAnalyzer 创建新的分析器
func NewAnalyzer(config *types.AnalyzerConfig, registry *decoder.DecoderRegistry) *Analyzer {
	return &Analyzer{
		config:          config,
		decoderRegistry: registry,
	}
}

// AnalyzeFiles 并发分析多个音频文件，结果顺序与输入一致
func (a *Analyzer) AnalyzeFiles(ctx context.Context, filePaths []string) []*types.AnalysisResult {
	results := make([]*types.AnalysisResult, len(filePaths))

	concurrency := a.config.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = a.AnalyzeFile(ctx, filePaths[idx])
			}
		}()
	}

	for i := range filePaths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// AnalyzeFile 分析单个音频文件
func (a *Analyzer) AnalyzeFile(ctx context.Context, filePath string) *types.AnalysisResult {
	result := &types.AnalysisResult{
		FilePath: filePath,
		Status:   StatusError,
	}

	audioFile, err := a.decoderRegistry.DecodeFileContext(ctx, filePath)
	if err != nil {
		result.Error = fmt.Sprintf("解码失败: %v", err)
		return result
	}
	defer audioFile.Close()

	result.Format = audioFile.GetFormat()
	result.Metadata = audioFile.GetMetadata()

	buf, err := decoder.ReadBuffer(audioFile)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	spectrum, err := NewSpectrumAnalyzer(buf.SampleRate).AnalyzeSpectrum(Mono(buf))
	if err != nil {
		result.Error = fmt.Sprintf("频谱分析失败: %v", err)
		return result
	}

	bandList := a.config.Bands
	if len(bandList) == 0 {
		bandList = bands.Default()
	}

	result.SampleRate = buf.SampleRate
	result.BitDepth = buf.BitDepth
	result.Channels = buf.Channels
	result.Duration = buf.Duration().Seconds()
	result.DominantFrequency = spectrum.DominantFrequency
	result.MaxFrequency = spectrum.MaxFrequency
	result.Bands = spectrum.BandEnergies(bandList)
	result.Status = StatusOK

	log.WithFields(log.Fields{
		"file":     filePath,
		"dominant": spectrum.DominantFrequency,
	}).Debug("频谱分析完成")

	return result
}

// Mono 将交错的多声道采样混合为单声道
func Mono(buf *types.Buffer) []float64 {
	if buf.Channels <= 1 {
		return buf.Samples
	}

	frames := buf.Frames()
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for ch := 0; ch < buf.Channels; ch++ {
			sum += buf.Samples[i*buf.Channels+ch]
		}
		mono[i] = sum / float64(buf.Channels)
	}
	return mono
}

// WriteResults 按配置输出分析结果
func (a *Analyzer) WriteResults(w io.Writer, results []*types.AnalysisResult) error {
	if a.config.JSONOutput {
		enc := json.NewEncoder(w)
		for _, result := range results {
			if err := enc.Encode(result); err != nil {
				return err
			}
		}
		return nil
	}

	for _, result := range results {
		if a.config.Quiet && result.Status == StatusOK {
			continue
		}
		writeDetailedResult(w, result)
	}
	return nil
}

// writeDetailedResult 打印详细结果
func writeDetailedResult(w io.Writer, result *types.AnalysisResult) {
	fmt.Fprintf(w, "\n=== %s ===\n", filepath.Base(result.FilePath))
	fmt.Fprintf(w, "路径: %s\n", result.FilePath)
	fmt.Fprintf(w, "格式: %s\n", result.Format)
	fmt.Fprintf(w, "状态: %s\n", result.Status)

	if result.Error != "" {
		fmt.Fprintf(w, "错误: %s\n", result.Error)
		return
	}

	fmt.Fprintf(w, "采样率: %d Hz\n", result.SampleRate)
	fmt.Fprintf(w, "位深度: %d bit\n", result.BitDepth)
	fmt.Fprintf(w, "声道数: %d\n", result.Channels)
	fmt.Fprintf(w, "时长: %.2f 秒\n", result.Duration)

	if result.Metadata.Title != "" {
		fmt.Fprintf(w, "标题: %s\n", result.Metadata.Title)
	}
	if result.Metadata.Artist != "" {
		fmt.Fprintf(w, "艺术家: %s\n", result.Metadata.Artist)
	}

	fmt.Fprintf(w, "主频率: %.0f Hz\n", result.DominantFrequency)
	fmt.Fprintf(w, "最高有效频率: %.0f Hz\n", result.MaxFrequency)
	fmt.Fprintln(w, RenderBandTable(result.Bands))
}

// RenderBandTable 渲染频段能量表格
func RenderBandTable(energies []types.BandEnergy) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"频段", "范围 (Hz)", "能量占比", "电平 (dB)"})

	for _, e := range energies {
		tw.AppendRow(table.Row{
			e.Band.Name,
			fmt.Sprintf("%d-%d", e.Band.Low, e.Band.High),
			fmt.Sprintf("%.1f%%", e.Share*100),
			fmt.Sprintf("%.1f", e.LevelDB),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	return tw.Render()
}
