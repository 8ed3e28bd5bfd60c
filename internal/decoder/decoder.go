package decoder

import (
	"context"
	"path/filepath"
	"strings"

	"songsplitter/internal/types"

	"github.com/cockroachdb/errors"
)

// ErrUnsupportedFormat 不支持的音频格式
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// AudioDecoder 音频解码器接口
type AudioDecoder interface {
	Decode(filePath string) (types.AudioFile, error)
	SupportedFormats() []string
}

// ContextDecoder 解码过程可以被取消的解码器，例如调用外部工具转码
type ContextDecoder interface {
	DecodeContext(ctx context.Context, filePath string) (types.AudioFile, error)
}

// DecoderRegistry 解码器注册表
type DecoderRegistry struct {
	decoders map[string]AudioDecoder
	fallback AudioDecoder
}

// NewDecoderRegistry 创建新的解码器注册表
func NewDecoderRegistry() *DecoderRegistry {
	registry := &DecoderRegistry{
		decoders: make(map[string]AudioDecoder),
	}

	registry.Register(&WAVDecoder{})
	registry.Register(&FLACDecoder{})
	registry.Register(&MP3Decoder{})

	return registry
}

// Register 注册解码器
func (r *DecoderRegistry) Register(decoder AudioDecoder) {
	for _, format := range decoder.SupportedFormats() {
		r.decoders[strings.ToLower(format)] = decoder
	}
}

// SetFallback 设置未注册格式使用的解码器
func (r *DecoderRegistry) SetFallback(decoder AudioDecoder) {
	r.fallback = decoder
}

// GetDecoder 根据文件扩展名获取解码器
func (r *DecoderRegistry) GetDecoder(filePath string) (AudioDecoder, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filePath)), ".")

	if decoder, exists := r.decoders[ext]; exists {
		return decoder, nil
	}
	if r.fallback != nil {
		return r.fallback, nil
	}

	if ext == "" {
		return nil, errors.Mark(errors.Newf("无法确定文件格式: %s", filePath), ErrUnsupportedFormat)
	}
	return nil, errors.Mark(errors.Newf("不支持的音频格式: %s", ext), ErrUnsupportedFormat)
}

// DecodeFile 解码音频文件
func (r *DecoderRegistry) DecodeFile(filePath string) (types.AudioFile, error) {
	return r.DecodeFileContext(context.Background(), filePath)
}

// DecodeFileContext 解码音频文件，ctx 取消时中止外部转码
func (r *DecoderRegistry) DecodeFileContext(ctx context.Context, filePath string) (types.AudioFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	decoder, err := r.GetDecoder(filePath)
	if err != nil {
		return nil, err
	}

	if cd, ok := decoder.(ContextDecoder); ok {
		return cd.DecodeContext(ctx, filePath)
	}
	return decoder.Decode(filePath)
}

// DecodeBuffer 解码音频文件并读取全部采样
func (r *DecoderRegistry) DecodeBuffer(filePath string) (*types.Buffer, error) {
	return r.DecodeBufferContext(context.Background(), filePath)
}

// DecodeBufferContext 同 DecodeBuffer，ctx 取消时中止外部转码
func (r *DecoderRegistry) DecodeBufferContext(ctx context.Context, filePath string) (*types.Buffer, error) {
	audioFile, err := r.DecodeFileContext(ctx, filePath)
	if err != nil {
		return nil, err
	}
	defer audioFile.Close()

	return ReadBuffer(audioFile)
}

// ReadBuffer 将已打开的音频文件读入缓冲区
func ReadBuffer(audioFile types.AudioFile) (*types.Buffer, error) {
	samples, err := audioFile.GetSamples()
	if err != nil {
		return nil, errors.Wrap(err, "读取音频数据失败")
	}

	return &types.Buffer{
		SampleRate: audioFile.GetSampleRate(),
		BitDepth:   audioFile.GetBitDepth(),
		Channels:   audioFile.GetChannels(),
		Samples:    samples,
	}, nil
}

// normalize 将有符号整数采样转换为 [-1, 1) 范围的浮点数
func normalize(sample int, bitDepth int) float64 {
	return float64(sample) / float64(int64(1)<<uint(bitDepth-1))
}
