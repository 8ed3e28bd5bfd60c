package encoder_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"songsplitter/internal/decoder"
	"songsplitter/internal/encoder"
	"songsplitter/internal/testsupport"
	"songsplitter/internal/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Encoder", func() {
	var (
		dir string
		ctx context.Context
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "encoder-test-")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)
		ctx = context.Background()
	})

	DescribeTable("OutputBitDepth",
		func(in, expected int) {
			Expect(encoder.OutputBitDepth(in)).To(Equal(expected))
		},
		Entry("8 bit", 8, 16),
		Entry("16 bit", 16, 16),
		Entry("20 bit", 20, 24),
		Entry("24 bit", 24, 24),
		Entry("32 bit", 32, 32),
	)

	It("rounds and clips when quantizing", func() {
		Expect(encoder.Quantize([]float64{0, 0.5, -0.5, 1.5, -1.5, 1.0 / 65536}, 16)).
			To(Equal([]int{0, 16384, -16384, 32767, -32768, 1}))
	})

	It("creates encoders for each output format", func() {
		wav, err := encoder.New(types.FormatWAV, 320, "ffmpeg")
		Expect(err).NotTo(HaveOccurred())
		Expect(wav.Format()).To(Equal(types.FormatWAV))

		mp3, err := encoder.New(types.FormatMP3, 320, "ffmpeg")
		Expect(err).NotTo(HaveOccurred())
		Expect(mp3.Format()).To(Equal(types.FormatMP3))

		_, err = encoder.New(types.OutputFormat("ogg"), 320, "ffmpeg")
		Expect(err).To(HaveOccurred())
	})

	Describe("WAVEncoder", func() {
		It("writes a 24 bit file for 24 bit input and creates parent directories", func() {
			buf := testsupport.Sine(44100, 2, 1000, 0.5, 440)
			buf.BitDepth = 24
			path := filepath.Join(dir, "nested", "out.wav")

			Expect((&encoder.WAVEncoder{}).Encode(ctx, path, buf)).To(Succeed())

			decoded, err := decoder.NewDecoderRegistry().DecodeBuffer(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded.BitDepth).To(Equal(24))
			Expect(decoded.Channels).To(Equal(2))
			Expect(decoded.Frames()).To(Equal(1000))
		})

		It("does not write when the context is cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			path := filepath.Join(dir, "out.wav")
			err := (&encoder.WAVEncoder{}).Encode(cancelled, path, testsupport.Sine(8000, 1, 10, 0.5, 440))
			Expect(err).To(MatchError(context.Canceled))
			Expect(path).NotTo(BeAnExistingFile())
		})

		It("writes long multichannel buffers in whole frames", func() {
			buf := testsupport.Sine(44100, 3, 70000, 0.5, 440, 3000)
			path := filepath.Join(dir, "long.wav")

			Expect((&encoder.WAVEncoder{}).Encode(ctx, path, buf)).To(Succeed())
			Expect(path + ".part").NotTo(BeAnExistingFile())

			decoded, err := decoder.NewDecoderRegistry().DecodeBuffer(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded.Channels).To(Equal(3))
			Expect(decoded.Frames()).To(Equal(70000))

			want := encoder.Quantize(buf.Samples, 16)
			got := encoder.Quantize(decoded.Samples, 16)
			mismatch := -1
			for i := range want {
				if want[i] != got[i] {
					mismatch = i
					break
				}
			}
			Expect(mismatch).To(Equal(-1))
		})

		It("writes only a header for an empty buffer", func() {
			path := filepath.Join(dir, "empty.wav")
			Expect((&encoder.WAVEncoder{}).Encode(ctx, path, &types.Buffer{SampleRate: 8000, Channels: 1, BitDepth: 16})).To(Succeed())

			info, err := os.Stat(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Size()).To(BeEquivalentTo(44))
		})

		It("leaves no partial file behind when the output cannot be saved", func() {
			// 输出路径是已存在的目录，临时文件写完后重命名失败
			path := filepath.Join(dir, "taken.wav")
			Expect(os.Mkdir(path, 0o755)).To(Succeed())

			err := (&encoder.WAVEncoder{}).Encode(ctx, path, testsupport.Sine(8000, 1, 100, 0.5, 440))
			Expect(err).To(MatchError(ContainSubstring("保存WAV文件失败")))
			Expect(path + ".part").NotTo(BeAnExistingFile())
			Expect(path).To(BeADirectory())
		})

		It("rejects buffers without a sample rate", func() {
			err := (&encoder.WAVEncoder{}).Encode(ctx, filepath.Join(dir, "out.wav"), &types.Buffer{Channels: 1})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("MP3Encoder", func() {
		It("encodes through ffmpeg and removes the intermediate WAV", func() {
			stub, err := testsupport.WriteScript(dir, "ffmpeg", strings.Join([]string{
				`echo "$@" > "$0.args"`,
				`for last; do :; done`,
				`echo mp3 > "$last"`,
			}, "\n"))
			Expect(err).NotTo(HaveOccurred())

			path := filepath.Join(dir, "out.mp3")
			enc := encoder.NewMP3Encoder(stub, 192)
			Expect(enc.Encode(ctx, path, testsupport.Sine(8000, 1, 100, 0.5, 440))).To(Succeed())

			Expect(path).To(BeAnExistingFile())
			Expect(path + ".tmp.wav").NotTo(BeAnExistingFile())

			args, err := os.ReadFile(stub + ".args")
			Expect(err).NotTo(HaveOccurred())
			Expect(string(args)).To(ContainSubstring("libmp3lame"))
			Expect(string(args)).To(ContainSubstring("-b:a 192k"))
			Expect(string(args)).To(ContainSubstring("-i " + path + ".tmp.wav"))
		})

		It("falls back to the default bitrate", func() {
			stub, err := testsupport.WriteScript(dir, "ffmpeg", `echo "$@" > "$0.args"`+"\n")
			Expect(err).NotTo(HaveOccurred())

			enc := encoder.NewMP3Encoder(stub, 0)
			Expect(enc.Encode(ctx, filepath.Join(dir, "out.mp3"), testsupport.Sine(8000, 1, 100, 0.5, 440))).To(Succeed())

			args, err := os.ReadFile(stub + ".args")
			Expect(err).NotTo(HaveOccurred())
			Expect(string(args)).To(ContainSubstring("-b:a 320k"))
		})

		It("removes the intermediate WAV when it cannot be written", func() {
			stub, err := testsupport.WriteScript(dir, "ffmpeg", "touch \"$0.ran\"\n")
			Expect(err).NotTo(HaveOccurred())

			path := filepath.Join(dir, "out.mp3")
			Expect(os.Mkdir(path+".tmp.wav", 0o755)).To(Succeed())

			err = encoder.NewMP3Encoder(stub, 320).Encode(ctx, path, testsupport.Sine(8000, 1, 100, 0.5, 440))
			Expect(err).To(HaveOccurred())
			Expect(path + ".tmp.wav").NotTo(BeAnExistingFile())
			Expect(path + ".tmp.wav.part").NotTo(BeAnExistingFile())
			Expect(stub + ".ran").NotTo(BeAnExistingFile())
		})

		It("reports ffmpeg failures", func() {
			stub, err := testsupport.WriteScript(dir, "ffmpeg", "echo 'Unknown encoder libmp3lame' >&2\nexit 1\n")
			Expect(err).NotTo(HaveOccurred())

			path := filepath.Join(dir, "out.mp3")
			err = encoder.NewMP3Encoder(stub, 320).Encode(ctx, path, testsupport.Sine(8000, 1, 100, 0.5, 440))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("Unknown encoder"))
			Expect(path + ".tmp.wav").NotTo(BeAnExistingFile())
		})
	})
})
