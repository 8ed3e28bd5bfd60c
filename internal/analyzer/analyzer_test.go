package analyzer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"songsplitter/internal/analyzer"
	"songsplitter/internal/decoder"
	"songsplitter/internal/testsupport"
	"songsplitter/internal/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SpectrumAnalyzer", func() {
	It("finds the dominant frequency of a pure tone", func() {
		buf := testsupport.Sine(44100, 1, 44100, 0.5, 1000)
		spectrum, err := analyzer.NewSpectrumAnalyzer(44100).AnalyzeSpectrum(buf.Samples)
		Expect(err).NotTo(HaveOccurred())
		Expect(spectrum.DominantFrequency).To(BeNumerically("~", 1000, 2*spectrum.FreqResolution))
	})

	It("splits energy between the default bands", func() {
		buf := testsupport.Sine(44100, 1, 44100, 0.8, 200, 10000)
		spectrum, err := analyzer.NewSpectrumAnalyzer(44100).AnalyzeSpectrum(buf.Samples)
		Expect(err).NotTo(HaveOccurred())

		energies := spectrum.BandEnergies([]types.Band{
			{Low: 0, High: 500, Name: "low"},
			{Low: 500, High: 4000, Name: "mid"},
			{Low: 4000, High: 20000, Name: "high"},
		})
		Expect(energies).To(HaveLen(3))
		Expect(energies[0].Share).To(BeNumerically("~", 0.5, 0.1))
		Expect(energies[1].Share).To(BeNumerically("<", 0.05))
		Expect(energies[2].Share).To(BeNumerically("~", 0.5, 0.1))
		Expect(energies[0].LevelDB).To(BeNumerically(">", energies[1].LevelDB))
	})

	It("shrinks the window for short input", func() {
		buf := testsupport.Sine(8000, 1, 1000, 0.5, 1000)
		spectrum, err := analyzer.NewSpectrumAnalyzer(8000).AnalyzeSpectrum(buf.Samples)
		Expect(err).NotTo(HaveOccurred())
		Expect(spectrum.FreqResolution).To(Equal(8000.0 / 512))
	})

	It("rejects empty input", func() {
		_, err := analyzer.NewSpectrumAnalyzer(44100).AnalyzeSpectrum(nil)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Mono", func() {
	It("averages interleaved channels", func() {
		buf := &types.Buffer{SampleRate: 8000, Channels: 2, Samples: []float64{1, 0, 0.5, 0.5, -1, 1}}
		Expect(analyzer.Mono(buf)).To(Equal([]float64{0.5, 0.5, 0}))
	})

	It("returns mono samples unchanged", func() {
		buf := &types.Buffer{SampleRate: 8000, Channels: 1, Samples: []float64{0.1, 0.2}}
		Expect(analyzer.Mono(buf)).To(Equal([]float64{0.1, 0.2}))
	})
})

var _ = Describe("Analyzer", func() {
	var (
		dir    string
		config *types.AnalyzerConfig
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "analyzer-test-")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)

		config = &types.AnalyzerConfig{Concurrency: 2}
	})

	It("analyzes files and keeps input order", func() {
		good := filepath.Join(dir, "tone.wav")
		Expect(testsupport.WriteWAV(good, testsupport.Sine(22050, 2, 22050, 0.5, 300))).To(Succeed())
		missing := filepath.Join(dir, "missing.wav")

		results := analyzer.NewAnalyzer(config, decoder.NewDecoderRegistry()).AnalyzeFiles(context.Background(), []string{good, missing})
		Expect(results).To(HaveLen(2))

		Expect(results[0].FilePath).To(Equal(good))
		Expect(results[0].Status).To(Equal(analyzer.StatusOK))
		Expect(results[0].SampleRate).To(Equal(22050))
		Expect(results[0].Channels).To(Equal(2))
		Expect(results[0].BitDepth).To(Equal(16))
		Expect(results[0].Duration).To(BeNumerically("~", 1.0, 0.01))
		Expect(results[0].DominantFrequency).To(BeNumerically("~", 300, 10))
		Expect(results[0].Bands).To(HaveLen(3))
		Expect(results[0].Bands[0].Band.Name).To(Equal("low"))

		Expect(results[1].FilePath).To(Equal(missing))
		Expect(results[1].Status).To(Equal(analyzer.StatusError))
		Expect(results[1].Error).NotTo(BeEmpty())
	})

	It("writes one JSON object per result", func() {
		config.JSONOutput = true
		a := analyzer.NewAnalyzer(config, decoder.NewDecoderRegistry())

		var out bytes.Buffer
		err := a.WriteResults(&out, []*types.AnalysisResult{
			{FilePath: "a.wav", Status: analyzer.StatusOK, SampleRate: 44100},
			{FilePath: "b.wav", Status: analyzer.StatusError, Error: "boom"},
		})
		Expect(err).NotTo(HaveOccurred())

		dec := json.NewDecoder(&out)
		var first, second types.AnalysisResult
		Expect(dec.Decode(&first)).To(Succeed())
		Expect(dec.Decode(&second)).To(Succeed())
		Expect(first.FilePath).To(Equal("a.wav"))
		Expect(first.SampleRate).To(Equal(44100))
		Expect(second.Error).To(Equal("boom"))
	})

	It("only prints failures in quiet mode", func() {
		config.Quiet = true
		a := analyzer.NewAnalyzer(config, decoder.NewDecoderRegistry())

		var out bytes.Buffer
		err := a.WriteResults(&out, []*types.AnalysisResult{
			{FilePath: "/music/good.wav", Status: analyzer.StatusOK},
			{FilePath: "/music/bad.wav", Status: analyzer.StatusError, Error: "boom"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(out.String()).NotTo(ContainSubstring("good.wav"))
		Expect(out.String()).To(ContainSubstring("bad.wav"))
		Expect(out.String()).To(ContainSubstring("boom"))
	})

	It("renders band energies as a table", func() {
		rendered := analyzer.RenderBandTable([]types.BandEnergy{
			{Band: types.Band{Low: 0, High: 500, Name: "low"}, Share: 0.75, LevelDB: -3.2},
		})
		Expect(rendered).To(ContainSubstring("low"))
		Expect(rendered).To(ContainSubstring("0-500"))
		Expect(rendered).To(ContainSubstring("75.0%"))
		Expect(rendered).To(ContainSubstring("-3.2"))
	})
})
