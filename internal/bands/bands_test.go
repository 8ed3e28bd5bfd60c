package bands_test

import (
	"fmt"

	"songsplitter/internal/bands"
	"songsplitter/internal/types"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Bands", func() {
	Describe("Parse", func() {
		It("accepts every a-b pair with a < b", func() {
			for a := 0; a < 40; a += 3 {
				for b := a + 1; b < 60; b += 7 {
					band, err := bands.Parse(fmt.Sprintf("%d-%d", a, b))
					Expect(err).NotTo(HaveOccurred())
					Expect(band).To(Equal(types.Band{Low: a, High: b, Name: fmt.Sprintf("%d-%dHz", a, b)}))
				}
			}
		})

		It("tolerates surrounding whitespace", func() {
			band, err := bands.Parse(" 500 - 4000 ")
			Expect(err).NotTo(HaveOccurred())
			Expect(band.Low).To(Equal(500))
			Expect(band.High).To(Equal(4000))
		})

		It("rejects a >= b", func() {
			for _, s := range []string{"500-500", "4000-500", "1-0"} {
				_, err := bands.Parse(s)
				Expect(err).To(HaveOccurred(), s)
				Expect(errors.Is(err, bands.ErrInvalidBand)).To(BeTrue())
				Expect(err.Error()).To(ContainSubstring(s))
			}
		})

		It("rejects malformed input", func() {
			for _, s := range []string{"", "500", "a-b", "0-500-1000", "-5-10", "1.5-3", "0x10-20", "+1-5", "0-"} {
				_, err := bands.Parse(s)
				Expect(err).To(HaveOccurred(), s)
				Expect(errors.Is(err, bands.ErrInvalidBand)).To(BeTrue(), s)
			}
		})
	})

	Describe("ParseAll", func() {
		It("returns nil for no arguments", func() {
			result, err := bands.ParseAll(nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(BeNil())
		})

		It("splits on commas and whitespace", func() {
			result, err := bands.ParseAll([]string{"0-500 500-4000", "4000-8000,8000-16000"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(HaveLen(4))
			Expect(result[0].Name).To(Equal("0-500Hz"))
			Expect(result[3].Name).To(Equal("8000-16000Hz"))
		})

		It("rejects arguments that contain no band", func() {
			for _, arg := range []string{"", ",", " ", " , \t"} {
				result, err := bands.ParseAll([]string{"0-500", arg})
				Expect(err).To(HaveOccurred(), "%q", arg)
				Expect(errors.Is(err, bands.ErrInvalidBand)).To(BeTrue(), "%q", arg)
				Expect(result).To(BeNil())
			}
		})

		It("stops at the first invalid band", func() {
			result, err := bands.ParseAll([]string{"0-500", "900-100", "abc"})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("900-100"))
			Expect(result).To(BeNil())
		})
	})

	It("has low, mid and high default bands", func() {
		defaults := bands.Default()
		Expect(defaults).To(HaveLen(3))
		Expect(defaults[0]).To(Equal(types.Band{Low: 0, High: 500, Name: "low"}))
		Expect(defaults[1]).To(Equal(types.Band{Low: 500, High: 4000, Name: "mid"}))
		Expect(defaults[2]).To(Equal(types.Band{Low: 4000, High: 20000, Name: "high"}))
	})

	It("names output files by prefix, band and format", func() {
		Expect(bands.OutputPath("song", bands.Default()[0], types.FormatWAV)).To(Equal("song_low.wav"))
		band, _ := bands.Parse("0-500")
		Expect(bands.OutputPath("out/x", band, types.FormatMP3)).To(Equal("out/x_0-500Hz.mp3"))
	})
})
