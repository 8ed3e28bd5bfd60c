package cmd

import (
	"fmt"

	"songsplitter/internal/separator"

	"github.com/spf13/cobra"
)

func newSourceCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source <audio_file>",
		Short: "使用预训练模型将音频分离为 drums、bass、other、vocals 音轨",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runSource(cmd, args[0])
		},
	}
	addSourceFlags(cmd, opts)
	addFormatFlags(cmd, opts)
	return cmd
}

func (o *options) runSource(cmd *cobra.Command, input string) error {
	if err := checkInput(input); err != nil {
		return err
	}

	cfg, err := o.resolve(cmd)
	if err != nil {
		return err
	}

	stems, err := separator.NewSeparator(cfg.SeparateConfig()).Separate(cmd.Context(), input)
	if err != nil {
		return err
	}

	if !o.quiet {
		fmt.Fprintln(cmd.OutOrStdout(), renderStemResults(stems))
	}
	return nil
}
