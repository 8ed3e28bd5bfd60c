package analyzer

import (
	"math"
	"math/cmplx"

	"songsplitter/internal/types"

	"github.com/cockroachdb/errors"
	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// 低于此电平的频段按静音处理
const silenceDB = -120.0

// SpectrumAnalyzer 频谱分析器
type SpectrumAnalyzer struct {
	sampleRate int
	windowSize int
}

// NewSpectrumAnalyzer 创建频谱分析器
func NewSpectrumAnalyzer(sampleRate int) *SpectrumAnalyzer {
	// 8K窗口，提供良好的频率分辨率
	return &SpectrumAnalyzer{
		sampleRate: sampleRate,
		windowSize: 8192,
	}
}

// SpectrumResult 频谱分析结果
type SpectrumResult struct {
	MaxFrequency      float64   // 最高有效频率
	DominantFrequency float64   // 能量最高的频率
	FreqResolution    float64   // 每个频点的宽度 (Hz)
	PowerSpectrum     []float64 // 功率谱
}

// AnalyzeSpectrum 分析单声道采样的频谱
func (s *SpectrumAnalyzer) AnalyzeSpectrum(samples []float64) (*SpectrumResult, error) {
	if len(samples) < 2 {
		return nil, errors.New("音频采样数据为空")
	}
	if s.sampleRate <= 0 {
		return nil, errors.Newf("无效的采样率: %d", s.sampleRate)
	}

	size := s.windowSize
	if len(samples) < size {
		size = floorPowerOf2(len(samples))
	}

	// 取样本的中间部分进行分析，避免开头和结尾的静音部分
	startIdx := len(samples) / 4
	if startIdx+size > len(samples) {
		startIdx = len(samples) - size
	}

	frame := make([]float64, size)
	copy(frame, samples[startIdx:startIdx+size])

	// 应用汉明窗减少频谱泄漏
	window.Apply(frame, window.Hamming)

	spectrum := fft.FFTReal(frame)
	power := calculatePowerSpectrum(spectrum)
	freqResolution := float64(s.sampleRate) / float64(size)

	return &SpectrumResult{
		MaxFrequency:      findMaxEffectiveFrequency(power, freqResolution),
		DominantFrequency: findDominantFrequency(power, freqResolution),
		FreqResolution:    freqResolution,
		PowerSpectrum:     power,
	}, nil
}

// BandEnergies 计算每个频段占总能量的比例。High 为 0 表示一直到奈奎斯特频率。
func (r *SpectrumResult) BandEnergies(bandList []types.Band) []types.BandEnergy {
	total := 0.0
	// 跳过直流分量
	for i := 1; i < len(r.PowerSpectrum); i++ {
		total += r.PowerSpectrum[i]
	}

	energies := make([]types.BandEnergy, 0, len(bandList))
	for _, band := range bandList {
		sum := 0.0
		for i := 1; i < len(r.PowerSpectrum); i++ {
			freq := float64(i) * r.FreqResolution
			if freq < float64(band.Low) {
				continue
			}
			if band.High > 0 && freq >= float64(band.High) {
				break
			}
			sum += r.PowerSpectrum[i]
		}

		share := 0.0
		if total > 0 {
			share = sum / total
		}
		energies = append(energies, types.BandEnergy{
			Band:    band,
			Share:   share,
			LevelDB: toDB(share),
		})
	}

	return energies
}

// calculatePowerSpectrum 计算功率谱
func calculatePowerSpectrum(spectrum []complex128) []float64 {
	power := make([]float64, len(spectrum)/2) // 只需要一半，因为FFT是对称的

	for i := range power {
		mag := cmplx.Abs(spectrum[i])
		power[i] = mag * mag
	}

	return power
}

// findMaxEffectiveFrequency 找到最后一个显著高于噪声基底的频率
func findMaxEffectiveFrequency(power []float64, freqResolution float64) float64 {
	threshold := calculateNoiseFloor(power) * 10

	for i := len(power) - 1; i >= 0; i-- {
		if power[i] > threshold {
			return float64(i) * freqResolution
		}
	}

	return 0
}

func findDominantFrequency(power []float64, freqResolution float64) float64 {
	best := 0
	for i := 1; i < len(power); i++ {
		if power[i] > power[best] {
			best = i
		}
	}
	return float64(best) * freqResolution
}

// calculateNoiseFloor 取功率谱的最后10%作为噪声基底的估计
func calculateNoiseFloor(power []float64) float64 {
	startIdx := len(power) * 9 / 10

	sum := 0.0
	count := 0
	for i := startIdx; i < len(power); i++ {
		sum += power[i]
		count++
	}

	if count == 0 {
		return 0
	}

	return sum / float64(count)
}

func toDB(share float64) float64 {
	if share <= 0 {
		return silenceDB
	}
	return math.Max(10*math.Log10(share), silenceDB)
}

// floorPowerOf2 返回不大于 n 的最大的2的幂
func floorPowerOf2(n int) int {
	power := 1
	for power*2 <= n {
		power <<= 1
	}
	return power
}
