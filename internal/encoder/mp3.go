package encoder

import (
	"context"
	"os"

	"songsplitter/internal/ffmpeg"
	"songsplitter/internal/types"

	"github.com/cockroachdb/errors"
)

// DefaultMP3Bitrate 默认 MP3 码率 (kbps)
const DefaultMP3Bitrate = 320

// MP3Encoder 先写临时 WAV，再由 ffmpeg 编码为 MP3
type MP3Encoder struct {
	ffmpeg  *ffmpeg.FFmpeg
	bitrate int
	wav     WAVEncoder
}

// NewMP3Encoder 创建MP3编码器
func NewMP3Encoder(ffmpegBin string, bitrate int) *MP3Encoder {
	if bitrate <= 0 {
		bitrate = DefaultMP3Bitrate
	}
	return &MP3Encoder{
		ffmpeg:  ffmpeg.New(ffmpegBin),
		bitrate: bitrate,
	}
}

// Format 返回输出格式
func (e *MP3Encoder) Format() types.OutputFormat {
	return types.FormatMP3
}

// Encode 将缓冲区编码为MP3文件
func (e *MP3Encoder) Encode(ctx context.Context, outputPath string, buf *types.Buffer) error {
	tmpPath := outputPath + ".tmp.wav"
	defer os.Remove(tmpPath)
	if err := e.wav.Encode(ctx, tmpPath, buf); err != nil {
		return err
	}

	if err := e.ffmpeg.ToMP3(ctx, tmpPath, outputPath, e.bitrate); err != nil {
		return errors.Wrapf(err, "编码MP3失败: %s", outputPath)
	}
	return nil
}
