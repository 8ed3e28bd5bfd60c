package encoder

import (
	"context"
	"math"
	"os"

	"songsplitter/internal/types"

	"github.com/cockroachdb/errors"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	// PCM 格式标记
	wavFormatPCM = 1

	partSuffix        = ".part"
	writeChunkSamples = 1 << 16
)

// WAVEncoder WAV格式编码器
type WAVEncoder struct{}

// Format 返回输出格式
func (e *WAVEncoder) Format() types.OutputFormat {
	return types.FormatWAV
}

// Encode 将缓冲区写入WAV文件。先写入 outputPath.part，完成后再重命名，
// 失败时不会留下不完整的输出文件。
func (e *WAVEncoder) Encode(ctx context.Context, outputPath string, buf *types.Buffer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if buf.SampleRate <= 0 || buf.Channels <= 0 {
		return errors.Newf("无效的音频格式: 采样率 %d, 声道数 %d", buf.SampleRate, buf.Channels)
	}
	if err := ensureDir(outputPath); err != nil {
		return err
	}

	partPath := outputPath + partSuffix
	if err := writeWAV(partPath, buf); err != nil {
		os.Remove(partPath)
		return err
	}
	if err := os.Rename(partPath, outputPath); err != nil {
		os.Remove(partPath)
		return errors.Wrapf(err, "保存WAV文件失败: %s", outputPath)
	}
	return nil
}

func writeWAV(path string, buf *types.Buffer) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "创建WAV文件失败: %s", path)
	}
	defer file.Close()

	bitDepth := OutputBitDepth(buf.BitDepth)
	enc := wav.NewEncoder(file, buf.SampleRate, bitDepth, buf.Channels, wavFormatPCM)

	// 分块量化写入，不为整段音频再分配一份整数采样。
	// 块大小必须是声道数的整数倍，否则编码器会丢弃不完整的帧。
	chunkSize := max(writeChunkSamples/buf.Channels, 1) * buf.Channels
	chunk := make([]int, min(len(buf.Samples), chunkSize))
	intBuf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: buf.Channels,
			SampleRate:  buf.SampleRate,
		},
		SourceBitDepth: bitDepth,
	}
	for start := 0; ; start += chunkSize {
		end := min(start+chunkSize, len(buf.Samples))
		intBuf.Data = quantizeInto(chunk[:end-start], buf.Samples[start:end], bitDepth)
		if err := enc.Write(intBuf); err != nil {
			return errors.Wrapf(err, "写入WAV数据失败: %s", path)
		}
		if end == len(buf.Samples) {
			break
		}
	}

	if err := enc.Close(); err != nil {
		return errors.Wrapf(err, "写入WAV文件头失败: %s", path)
	}
	return errors.Wrap(file.Close(), "关闭WAV文件失败")
}

// OutputBitDepth 将输入位深度映射为输出位深度: <=16 为 16, <=24 为 24, 其余为 32
func OutputBitDepth(bitDepth int) int {
	switch {
	case bitDepth <= 16:
		return 16
	case bitDepth <= 24:
		return 24
	default:
		return 32
	}
}

// Quantize 将归一化采样四舍五入并裁剪为指定位深度的整数
func Quantize(samples []float64, bitDepth int) []int {
	return quantizeInto(make([]int, len(samples)), samples, bitDepth)
}

func quantizeInto(dst []int, samples []float64, bitDepth int) []int {
	scale := float64(int64(1) << uint(bitDepth-1))
	maxVal := scale - 1
	minVal := -scale

	for i, s := range samples {
		v := math.Round(s * scale)
		if v > maxVal {
			v = maxVal
		} else if v < minVal {
			v = minVal
		}
		dst[i] = int(v)
	}
	return dst
}
