package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"songsplitter/internal/analyzer"
	"songsplitter/internal/bands"
	"songsplitter/internal/types"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

func newAnalyzeCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <path>",
		Short: "统计音频文件各频段的能量分布",
		Long: `analyze 对音频文件做频谱分析，输出每个频段的能量占比。
可用于在拆分前预览频段划分，或检查导出的频段文件。
path 为目录时会递归分析其中所有支持的音频文件。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runAnalyze(cmd, args[0])
		},
	}
	cmd.Flags().StringArrayVar(&opts.bands, "bands", nil, "统计的频段 'low_hz-high_hz'，默认使用 low/mid/high")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "以JSON格式输出结果")
	return cmd
}

func (o *options) runAnalyze(cmd *cobra.Command, target string) error {
	if _, err := os.Stat(target); os.IsNotExist(err) {
		return errors.Newf("路径不存在: %s", target)
	}

	cfg, err := o.resolve(cmd)
	if err != nil {
		return err
	}

	bandList, err := bands.ParseAll(cfg.Frequency.Bands)
	if err != nil {
		return err
	}

	files, err := collectAudioFiles(target)
	if err != nil {
		return errors.Wrap(err, "收集音频文件失败")
	}
	if len(files) == 0 {
		log.Warn("未找到支持的音频文件")
		return nil
	}

	a := analyzer.NewAnalyzer(&types.AnalyzerConfig{
		Bands:       bandList,
		Concurrency: cfg.Frequency.Workers,
		Quiet:       o.quiet,
		JSONOutput:  o.jsonOutput,
	}, newDecoderRegistry(cfg))

	results := a.AnalyzeFiles(cmd.Context(), files)
	if err := a.WriteResults(cmd.OutOrStdout(), results); err != nil {
		return errors.Wrap(err, "输出分析结果失败")
	}

	failed := 0
	for _, result := range results {
		if result.Status != analyzer.StatusOK {
			failed++
		}
	}
	if failed > 0 {
		return errors.Newf("%d 个文件分析失败", failed)
	}
	return nil
}

// collectAudioFiles 收集路径下的音频文件。path 为文件时直接返回。
func collectAudioFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	supportedExts := map[string]bool{
		".wav":  true,
		".flac": true,
		".mp3":  true,
	}

	var files []string
	err = filepath.Walk(path, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		if supportedExts[strings.ToLower(filepath.Ext(filePath))] {
			files = append(files, filePath)
		}
		return nil
	})

	return files, err
}
