package testsupport

import (
	"context"
	"math"
	"os"

	"songsplitter/internal/encoder"
	"songsplitter/internal/types"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// Sine 生成由多个正弦波叠加的测试缓冲区，每个声道内容相同。
// 总幅度为 amp，平均分配给各个频率。
func Sine(sampleRate, channels, frames int, amp float64, freqs ...float64) *types.Buffer {
	samples := make([]float64, frames*channels)
	per := amp / float64(len(freqs))

	for i := 0; i < frames; i++ {
		t := float64(i) / float64(sampleRate)
		v := 0.0
		for _, f := range freqs {
			v += per * math.Sin(2*math.Pi*f*t)
		}
		for ch := 0; ch < channels; ch++ {
			samples[i*channels+ch] = v
		}
	}

	return &types.Buffer{
		SampleRate: sampleRate,
		BitDepth:   16,
		Channels:   channels,
		Samples:    samples,
	}
}

// WriteWAV 将缓冲区写入16位WAV文件
func WriteWAV(path string, buf *types.Buffer) error {
	return (&encoder.WAVEncoder{}).Encode(context.Background(), path, buf)
}

// flacBlockSize 测试文件使用的块大小，最后一块可以更短
const flacBlockSize = 1024

// WriteFLAC 将缓冲区写入16位FLAC文件，tags 写入 VORBIS_COMMENT 块
func WriteFLAC(path string, buf *types.Buffer, tags map[string]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	frames := buf.Frames()
	info := &meta.StreamInfo{
		BlockSizeMin:  16,
		BlockSizeMax:  flacBlockSize,
		SampleRate:    uint32(buf.SampleRate),
		NChannels:     uint8(buf.Channels),
		BitsPerSample: 16,
		NSamples:      uint64(frames),
	}

	var blocks []*meta.Block
	if len(tags) > 0 {
		comment := &meta.VorbisComment{Vendor: "songsplitter"}
		for name, value := range tags {
			comment.Tags = append(comment.Tags, [2]string{name, value})
		}
		blocks = append(blocks, &meta.Block{
			Header: meta.Header{Type: meta.TypeVorbisComment},
			Body:   comment,
		})
	}

	enc, err := flac.NewEncoder(file, info, blocks...)
	if err != nil {
		return err
	}

	channels := frame.ChannelsMono
	if buf.Channels == 2 {
		channels = frame.ChannelsLR
	}

	data := encoder.Quantize(buf.Samples, 16)
	for start := 0; start < frames; start += flacBlockSize {
		n := min(flacBlockSize, frames-start)
		subframes := make([]*frame.Subframe, buf.Channels)
		for ch := range subframes {
			samples := make([]int32, n)
			for i := range samples {
				samples[i] = int32(data[(start+i)*buf.Channels+ch])
			}
			subframes[ch] = &frame.Subframe{
				SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
				Samples:   samples,
				NSamples:  n,
			}
		}

		f := &frame.Frame{
			Header: frame.Header{
				HasFixedBlockSize: false,
				BlockSize:         uint16(n),
				SampleRate:        uint32(buf.SampleRate),
				Channels:          channels,
				BitsPerSample:     16,
			},
			Subframes: subframes,
		}
		if err := enc.WriteFrame(f); err != nil {
			return err
		}
	}

	if err := enc.Close(); err != nil {
		return err
	}
	return file.Close()
}
