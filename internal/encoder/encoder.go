package encoder

import (
	"context"
	"os"
	"path/filepath"

	"songsplitter/internal/types"

	"github.com/cockroachdb/errors"
)

// AudioEncoder 音频编码器接口
type AudioEncoder interface {
	Encode(ctx context.Context, outputPath string, buf *types.Buffer) error
	Format() types.OutputFormat
}

// New 根据输出格式创建编码器
func New(format types.OutputFormat, mp3Bitrate int, ffmpegBin string) (AudioEncoder, error) {
	switch format {
	case types.FormatWAV:
		return &WAVEncoder{}, nil
	case types.FormatMP3:
		return NewMP3Encoder(ffmpegBin, mp3Bitrate), nil
	default:
		return nil, errors.Newf("不支持的输出格式: %s", format)
	}
}

// ensureDir 创建输出文件所在的目录
func ensureDir(outputPath string) error {
	dir := filepath.Dir(outputPath)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "创建输出目录失败: %s", dir)
	}
	return nil
}
