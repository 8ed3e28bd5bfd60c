package cmd

import (
	"fmt"

	"songsplitter/internal/bands"
	"songsplitter/internal/encoder"
	"songsplitter/internal/splitter"

	"github.com/spf13/cobra"
)

func newFrequencyCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frequency <audio_file>",
		Short: "将音频文件拆分为多个频段",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runFrequency(cmd, args[0])
		},
	}
	addFrequencyFlags(cmd, opts)
	addFormatFlags(cmd, opts)
	return cmd
}

func (o *options) runFrequency(cmd *cobra.Command, input string) error {
	if err := checkInput(input); err != nil {
		return err
	}

	cfg, err := o.resolve(cmd)
	if err != nil {
		return err
	}

	// 频段全部合法后才开始解码和滤波
	bandList, err := bands.ParseAll(cfg.Frequency.Bands)
	if err != nil {
		return err
	}

	splitConfig := cfg.SplitConfig()
	splitConfig.Progress = o.showProgress()

	enc, err := encoder.New(splitConfig.Format, splitConfig.MP3Bitrate, cfg.Tools.FFmpeg)
	if err != nil {
		return err
	}

	s := splitter.NewSplitter(splitConfig, newDecoderRegistry(cfg), enc)
	results, err := s.Split(cmd.Context(), input, bandList)
	if err != nil {
		return err
	}

	if !o.quiet {
		fmt.Fprintln(cmd.OutOrStdout(), renderBandResults(results))
	}
	return nil
}
