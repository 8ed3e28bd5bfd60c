package decoder

import (
	"context"
	"os"

	"songsplitter/internal/ffmpeg"
	"songsplitter/internal/types"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
)

// FFmpegDecoder 通过 ffmpeg 转码为临时 WAV 后解码，用于未注册的格式
type FFmpegDecoder struct {
	ffmpeg *ffmpeg.FFmpeg
	wav    WAVDecoder
}

// NewFFmpegDecoder 创建 ffmpeg 解码器
func NewFFmpegDecoder(binary string) *FFmpegDecoder {
	return &FFmpegDecoder{ffmpeg: ffmpeg.New(binary)}
}

// transcodedFile 解码完成后删除临时 WAV 文件
type transcodedFile struct {
	types.AudioFile
	format  string
	tmpPath string
}

// SupportedFormats 作为兜底解码器不声明具体格式
func (d *FFmpegDecoder) SupportedFormats() []string {
	return nil
}

// Decode 解码任意 ffmpeg 支持的音频文件
func (d *FFmpegDecoder) Decode(filePath string) (types.AudioFile, error) {
	return d.DecodeContext(context.Background(), filePath)
}

// DecodeContext 转码并解码，ctx 取消时终止 ffmpeg
func (d *FFmpegDecoder) DecodeContext(ctx context.Context, filePath string) (types.AudioFile, error) {
	tmp, err := os.CreateTemp("", "songsplitter-*.wav")
	if err != nil {
		return nil, errors.Wrap(err, "创建临时文件失败")
	}
	tmpPath := tmp.Name()
	tmp.Close()

	log.WithField("file", filePath).Debug("使用 ffmpeg 转码输入文件")

	if err := d.ffmpeg.ToWAV(ctx, filePath, tmpPath); err != nil {
		os.Remove(tmpPath)
		return nil, errors.Wrapf(err, "无法解码音频文件: %s", filePath)
	}

	audioFile, err := d.wav.Decode(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return nil, err
	}

	return &transcodedFile{
		AudioFile: audioFile,
		format:    "FFMPEG",
		tmpPath:   tmpPath,
	}, nil
}

// GetFormat 获取格式名称
func (t *transcodedFile) GetFormat() string {
	return t.format
}

// Close 关闭并删除临时文件
func (t *transcodedFile) Close() error {
	err := t.AudioFile.Close()
	if rmErr := os.Remove(t.tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
		return errors.CombineErrors(err, rmErr)
	}
	return err
}
