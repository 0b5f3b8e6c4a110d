package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"movie-maker/internal/probe"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe NAME",
		Short: "Show stream information for an uploaded file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uploads, err := ctx.uploadStore()
			if err != nil {
				return err
			}
			path, err := uploads.Resolve(args[0])
			if err != nil {
				return err
			}
			info, err := probe.New(ctx.ffprobePath).Probe(cmd.Context(), path)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderProbe(args[0], info))
			return nil
		},
	}
}

func renderProbe(name string, info *probe.Result) string {
	rows := [][]string{
		{"File", name},
		{"Format", info.Format},
		{"Duration", strconv.FormatFloat(info.Duration, 'f', 2, 64) + "s"},
		{"Size", humanize.IBytes(uint64(info.Size))},
		{"Bit rate", humanize.SI(float64(info.BitRate), "bit/s")},
	}
	if v := info.Video; v != nil {
		rows = append(rows,
			[]string{"Video", fmt.Sprintf("%s %dx%d %s", v.Codec, v.Width, v.Height, v.PixelFormat)},
			[]string{"Frame rate", strconv.FormatFloat(v.FrameRate, 'f', -1, 64) + " fps"},
		)
	} else {
		rows = append(rows, []string{"Video", "none"})
	}
	if a := info.Audio; a != nil {
		rows = append(rows, []string{"Audio", fmt.Sprintf("%s %d Hz, %d ch", a.Codec, a.SampleRate, a.Channels)})
	} else {
		rows = append(rows, []string{"Audio", "none"})
	}
	return renderTable([]column{{title: "Field"}, {title: "Value"}}, rows, nil)
}
