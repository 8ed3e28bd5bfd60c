package ffmpeg

import (
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
)

// DefaultBinary 默认的 ffmpeg 可执行文件名
const DefaultBinary = "ffmpeg"

// FFmpeg ffmpeg 命令封装
type FFmpeg struct {
	Binary string
}

// New 创建 ffmpeg 封装，binary 为空时使用 PATH 中的 ffmpeg
func New(binary string) *FFmpeg {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultBinary
	}
	return &FFmpeg{Binary: binary}
}

// ToWAV 将任意 ffmpeg 可读取的音频转换为 16 位 PCM WAV
func (f *FFmpeg) ToWAV(ctx context.Context, input, output string) error {
	return f.run(ctx, "-i", input, "-vn", "-acodec", "pcm_s16le", "-f", "wav", output)
}

// ToMP3 使用 libmp3lame 将音频编码为 MP3，bitrate 单位为 kbps
func (f *FFmpeg) ToMP3(ctx context.Context, input, output string, bitrate int) error {
	if bitrate <= 0 {
		return errors.Newf("无效的MP3码率: %d", bitrate)
	}
	return f.run(ctx, "-i", input, "-vn", "-codec:a", "libmp3lame", "-b:a", strconv.Itoa(bitrate)+"k", "-f", "mp3", output)
}

func (f *FFmpeg) run(ctx context.Context, args ...string) error {
	args = append([]string{"-y", "-hide_banner", "-loglevel", "error"}, args...)

	logger := log.WithFields(log.Fields{
		"bin":  f.Binary,
		"args": args,
	})
	logger.Debug("执行 ffmpeg 命令")

	cmd := exec.CommandContext(ctx, f.Binary, args...)
	output, err := cmd.CombinedOutput()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Wrap(ctxErr, "ffmpeg 已被终止")
	}
	if err != nil {
		return errors.WithDetail(
			errors.Wrapf(err, "ffmpeg 执行失败: %s", strings.TrimSpace(string(output))),
			strings.Join(args, " "),
		)
	}

	if len(output) > 0 {
		logger.Debug(string(output))
	}
	return nil
}
