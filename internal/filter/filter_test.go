package filter_test

import (
	"songsplitter/internal/analyzer"
	"songsplitter/internal/filter"
	"songsplitter/internal/testsupport"
	"songsplitter/internal/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const sampleRate = 44100

func bandShares(buf *types.Buffer, bandList ...types.Band) []float64 {
	spectrum, err := analyzer.NewSpectrumAnalyzer(buf.SampleRate).AnalyzeSpectrum(analyzer.Mono(buf))
	Expect(err).NotTo(HaveOccurred())

	var shares []float64
	for _, e := range spectrum.BandEnergies(bandList) {
		shares = append(shares, e.Share)
	}
	return shares
}

var _ = Describe("Filter", func() {
	var (
		lowBand  = types.Band{Low: 0, High: 1000, Name: "low"}
		highBand = types.Band{Low: 1000, High: 0, Name: "high"}
		input    *types.Buffer
	)

	BeforeEach(func() {
		input = testsupport.Sine(sampleRate, 2, sampleRate, 0.8, 100, 8000)
	})

	It("starts with energy split across both tones", func() {
		shares := bandShares(input, lowBand, highBand)
		Expect(shares[0]).To(BeNumerically("~", 0.5, 0.1))
		Expect(shares[1]).To(BeNumerically("~", 0.5, 0.1))
	})

	Describe("LowPass", func() {
		It("attenuates content above the cutoff", func() {
			out, err := filter.LowPass(input, 500)
			Expect(err).NotTo(HaveOccurred())

			shares := bandShares(out, lowBand, highBand)
			Expect(shares[0]).To(BeNumerically(">", 0.95))
		})

		It("keeps the first frame of every channel", func() {
			input.Samples[0] = 0.25
			input.Samples[1] = -0.25
			out, err := filter.LowPass(input, 500)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Samples[0]).To(Equal(0.25))
			Expect(out.Samples[1]).To(Equal(-0.25))
		})

		It("does not modify its input", func() {
			original := append([]float64(nil), input.Samples...)
			_, err := filter.LowPass(input, 500)
			Expect(err).NotTo(HaveOccurred())
			Expect(input.Samples).To(Equal(original))
		})

		It("rejects a non-positive cutoff", func() {
			_, err := filter.LowPass(input, 0)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("HighPass", func() {
		It("attenuates content below the cutoff", func() {
			out, err := filter.HighPass(input, 4000)
			Expect(err).NotTo(HaveOccurred())

			shares := bandShares(out, lowBand, highBand)
			Expect(shares[1]).To(BeNumerically(">", 0.95))
		})

		It("keeps samples within full scale", func() {
			square := &types.Buffer{SampleRate: sampleRate, BitDepth: 16, Channels: 1}
			for i := 0; i < 2000; i++ {
				v := 0.99
				if (i/50)%2 == 1 {
					v = -0.99
				}
				square.Samples = append(square.Samples, v)
			}

			out, err := filter.HighPass(square, 20)
			Expect(err).NotTo(HaveOccurred())
			for _, s := range out.Samples {
				Expect(s).To(BeNumerically(">=", -1))
				Expect(s).To(BeNumerically("<=", 1))
			}
		})
	})

	Describe("ApplyBand", func() {
		It("passes audio through for a 0-0 band", func() {
			out, err := filter.ApplyBand(input, types.Band{})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Samples).To(Equal(input.Samples))
			Expect(out).NotTo(BeIdenticalTo(input))
		})

		It("only low-passes when the band starts at 0", func() {
			expected, err := filter.LowPass(input, 500)
			Expect(err).NotTo(HaveOccurred())

			out, err := filter.ApplyBand(input, types.Band{Low: 0, High: 500})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Samples).To(Equal(expected.Samples))
		})

		It("only high-passes when the band reaches Nyquist", func() {
			expected, err := filter.HighPass(input, 4000)
			Expect(err).NotTo(HaveOccurred())

			out, err := filter.ApplyBand(input, types.Band{Low: 4000, High: sampleRate / 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Samples).To(Equal(expected.Samples))

			out, err = filter.ApplyBand(input, types.Band{Low: 4000, High: 0})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Samples).To(Equal(expected.Samples))
		})

		It("low-passes then high-passes a band inside the spectrum", func() {
			lowPassed, err := filter.LowPass(input, 4000)
			Expect(err).NotTo(HaveOccurred())
			expected, err := filter.HighPass(lowPassed, 500)
			Expect(err).NotTo(HaveOccurred())

			out, err := filter.ApplyBand(input, types.Band{Low: 500, High: 4000})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Samples).To(Equal(expected.Samples))
		})

		It("leaves the input untouched when filtering a mid band", func() {
			original := append([]float64(nil), input.Samples...)
			out, err := filter.ApplyBand(input, types.Band{Low: 500, High: 4000})
			Expect(err).NotTo(HaveOccurred())
			Expect(input.Samples).To(Equal(original))
			Expect(&out.Samples[0]).NotTo(BeIdenticalTo(&input.Samples[0]))
		})

		It("keeps mostly mid-band content for a mid band", func() {
			mixed := testsupport.Sine(sampleRate, 1, sampleRate, 0.9, 100, 1500, 8000)
			out, err := filter.ApplyBand(mixed, types.Band{Low: 500, High: 4000})
			Expect(err).NotTo(HaveOccurred())

			shares := bandShares(out,
				types.Band{Low: 0, High: 500},
				types.Band{Low: 500, High: 4000},
				types.Band{Low: 4000, High: 0},
			)
			Expect(shares[1]).To(BeNumerically(">", 0.6))
		})

		It("handles an empty buffer", func() {
			empty := &types.Buffer{SampleRate: sampleRate, BitDepth: 16, Channels: 2}
			out, err := filter.ApplyBand(empty, types.Band{Low: 500, High: 4000})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Samples).To(BeEmpty())
		})
	})

	It("reports the peak level", func() {
		buf := &types.Buffer{SampleRate: sampleRate, Channels: 1, Samples: []float64{0.1, -0.7, 0.3}}
		Expect(filter.Peak(buf)).To(Equal(0.7))
	})
})
