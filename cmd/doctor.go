package cmd

import (
	"fmt"
	"strings"

	"songsplitter/internal/deps"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

func newDoctorCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "检查 ffmpeg 和 demucs 是否可用",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.Requirements(cfg.Tools.FFmpeg, cfg.Tools.Demucs))
			fmt.Fprintln(cmd.OutOrStdout(), renderDependencies(statuses))

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				names := make([]string, 0, len(missing))
				for _, m := range missing {
					names = append(names, m.Name)
				}
				return errors.Newf("缺少必需的外部工具: %s", strings.Join(names, ", "))
			}
			return nil
		},
	}
}
