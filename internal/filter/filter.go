package filter

import (
	"math"

	"songsplitter/internal/types"

	"github.com/cockroachdb/errors"
)

// LowPass 一阶 RC 低通滤波，返回新的缓冲区
func LowPass(buf *types.Buffer, cutoff float64) (*types.Buffer, error) {
	if err := checkCutoff(buf, cutoff); err != nil {
		return nil, err
	}

	rc := 1.0 / (cutoff * 2 * math.Pi)
	dt := 1.0 / float64(buf.SampleRate)
	alpha := dt / (rc + dt)

	out := clone(buf)
	frames := buf.Frames()
	ch := buf.Channels
	if frames == 0 {
		return out, nil
	}

	for c := 0; c < ch; c++ {
		last := buf.Samples[c]
		for i := 1; i < frames; i++ {
			off := i*ch + c
			last += alpha * (buf.Samples[off] - last)
			out.Samples[off] = last
		}
	}

	return out, nil
}

// HighPass 一阶 RC 高通滤波，返回新的缓冲区
func HighPass(buf *types.Buffer, cutoff float64) (*types.Buffer, error) {
	if err := checkCutoff(buf, cutoff); err != nil {
		return nil, err
	}

	out := clone(buf)
	highPassInPlace(out, cutoff)
	return out, nil
}

// highPassInPlace 直接在 buf 上做高通滤波，调用方必须持有 buf
func highPassInPlace(buf *types.Buffer, cutoff float64) {
	rc := 1.0 / (cutoff * 2 * math.Pi)
	dt := 1.0 / float64(buf.SampleRate)
	alpha := rc / (rc + dt)

	frames := buf.Frames()
	ch := buf.Channels
	if frames == 0 {
		return
	}

	for c := 0; c < ch; c++ {
		last := buf.Samples[c]
		prev := buf.Samples[c]
		for i := 1; i < frames; i++ {
			off := i*ch + c
			cur := buf.Samples[off]
			last = alpha * (last + cur - prev)
			prev = cur
			buf.Samples[off] = clip(last)
		}
	}
}

// ApplyBand 按频段定义选择滤波方式:
//   - low 与 high 均为 0 时原样返回副本
//   - low 为 0 时只做低通
//   - high 为 0 或不低于奈奎斯特频率时只做高通
//   - 其他情况先低通再高通
func ApplyBand(buf *types.Buffer, band types.Band) (*types.Buffer, error) {
	low := float64(band.Low)
	high := float64(band.High)

	switch {
	case band.Low == 0 && band.High == 0:
		return clone(buf), nil
	case band.Low == 0:
		return LowPass(buf, high)
	case band.High == 0 || high >= buf.Nyquist():
		return HighPass(buf, low)
	default:
		if err := checkCutoff(buf, low); err != nil {
			return nil, err
		}
		out, err := LowPass(buf, high)
		if err != nil {
			return nil, err
		}
		// out 是 LowPass 新建的副本，高通直接写回，避免再复制一份
		highPassInPlace(out, low)
		return out, nil
	}
}

// Peak 返回缓冲区的峰值电平
func Peak(buf *types.Buffer) float64 {
	peak := 0.0
	for _, s := range buf.Samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}

func checkCutoff(buf *types.Buffer, cutoff float64) error {
	if cutoff <= 0 {
		return errors.Newf("截止频率必须大于 0: %v", cutoff)
	}
	if buf.SampleRate <= 0 || buf.Channels <= 0 {
		return errors.Newf("无效的音频格式: 采样率 %d, 声道数 %d", buf.SampleRate, buf.Channels)
	}
	return nil
}

func clone(buf *types.Buffer) *types.Buffer {
	samples := make([]float64, len(buf.Samples))
	copy(samples, buf.Samples)
	return &types.Buffer{
		SampleRate: buf.SampleRate,
		BitDepth:   buf.BitDepth,
		Channels:   buf.Channels,
		Samples:    samples,
	}
}

func clip(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
