package splitter

import (
	"context"
	"os"
	"sync"

	"songsplitter/internal/bands"
	"songsplitter/internal/decoder"
	"songsplitter/internal/encoder"
	"songsplitter/internal/filter"
	"songsplitter/internal/types"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/schollz/progressbar/v3"
)

// Splitter 频段拆分器
type Splitter struct {
	config   *types.SplitConfig
	decoders *decoder.DecoderRegistry
	encoder  encoder.AudioEncoder
}

// NewSplitter 创建新的频段拆分器
func NewSplitter(config *types.SplitConfig, decoders *decoder.DecoderRegistry, enc encoder.AudioEncoder) *Splitter {
	return &Splitter{
		config:   config,
		decoders: decoders,
		encoder:  enc,
	}
}

type job struct {
	index int
	band  types.Band
}

// Split 将音频文件拆分为多个频段并分别导出。bandList 为 nil 时使用默认频段。
// 返回结果与 bandList 顺序一致。
func (s *Splitter) Split(ctx context.Context, audioPath string, bandList []types.Band) ([]*types.BandResult, error) {
	if bandList == nil {
		bandList = bands.Default()
	}

	logger := log.WithFields(log.Fields{
		"file":   audioPath,
		"bands":  len(bandList),
		"format": s.encoder.Format(),
	})
	logger.Infof("正在将 '%s' 拆分为 %d 个频段...", audioPath, len(bandList))

	buf, err := s.decoders.DecodeBufferContext(ctx, audioPath)
	if err != nil {
		return nil, errors.Wrapf(err, "解码失败: %s", audioPath)
	}
	logger.WithFields(log.Fields{
		"sampleRate": buf.SampleRate,
		"bitDepth":   buf.BitDepth,
		"channels":   buf.Channels,
		"duration":   buf.Duration().String(),
	}).Debug("输入文件解码完成")

	var bar *progressbar.ProgressBar
	if s.config.Progress {
		bar = progressbar.NewOptions(len(bandList),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("导出频段"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(50),
			progressbar.OptionClearOnFinish(),
		)
	}

	workers := s.config.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(bandList) {
		workers = len(bandList)
	}

	jobs := make(chan job)
	results := make([]*types.BandResult, len(bandList))
	errs := make([]error, len(bandList))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.index], errs[j.index] = s.exportBand(ctx, buf, j.band)
				if bar != nil {
					bar.Add(1)
				}
			}
		}()
	}

	// 发送任务，ctx 取消后不再派发新的频段
	go func() {
		defer close(jobs)
		for i, band := range bandList {
			select {
			case jobs <- job{index: i, band: band}:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	if bar != nil {
		bar.Finish()
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "频段拆分已取消")
	}

	var combined error
	for _, err := range errs {
		combined = errors.CombineErrors(combined, err)
	}
	if combined != nil {
		return nil, combined
	}

	for _, result := range results {
		logger.Infof("已导出 %s 频段: '%s'", result.Band.Name, result.OutputPath)
	}

	return results, nil
}

// exportBand 对单个频段滤波并导出
func (s *Splitter) exportBand(ctx context.Context, buf *types.Buffer, band types.Band) (*types.BandResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filtered, err := filter.ApplyBand(buf, band)
	if err != nil {
		return nil, errors.Wrapf(err, "频段 %s 滤波失败", band.Name)
	}

	outputPath := bands.OutputPath(s.config.OutputPrefix, band, s.encoder.Format())
	if err := s.encoder.Encode(ctx, outputPath, filtered); err != nil {
		return nil, errors.Wrapf(err, "导出频段 %s 失败", band.Name)
	}

	return &types.BandResult{
		Band:       band,
		OutputPath: outputPath,
		Peak:       filter.Peak(filtered),
	}, nil
}
