package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"movie-maker/internal/assets"
)

const stampLayout = "2006-01-02 15:04"

// listing is one row of either store, in the JSON shape the API uses.
type listing struct {
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
	Kind      string    `json:"kind"`
	Operation string    `json:"operation,omitempty"`
}

func newFilesCommand(ctx *commandContext) *cobra.Command {
	filesCmd := &cobra.Command{
		Use:   "files",
		Short: "Inspect and manage uploaded files",
	}
	filesCmd.AddCommand(newListCommand("List uploaded files", false, func(cmd *cobra.Command) ([]listing, error) {
		store, err := ctx.uploadStore()
		if err != nil {
			return nil, err
		}
		list, err := store.List(cmd.Context())
		if err != nil {
			return nil, err
		}
		rows := make([]listing, 0, len(list))
		for _, a := range list {
			rows = append(rows, listing{Filename: a.Name, Size: a.Size, CreatedAt: a.CreatedAt, Kind: string(a.Kind)})
		}
		return rows, nil
	}))
	filesCmd.AddCommand(newRemoveCommand("Delete uploaded files", ctx.uploadStore))
	return filesCmd
}

func newOutputsCommand(ctx *commandContext) *cobra.Command {
	outputsCmd := &cobra.Command{
		Use:   "outputs",
		Short: "Inspect and manage job outputs",
	}
	outputsCmd.AddCommand(newListCommand("List job outputs", true, func(cmd *cobra.Command) ([]listing, error) {
		store, err := ctx.outputStore()
		if err != nil {
			return nil, err
		}
		list, err := store.ListArtifacts(cmd.Context())
		if err != nil {
			return nil, err
		}
		rows := make([]listing, 0, len(list))
		for _, a := range list {
			rows = append(rows, listing{
				Filename:  a.Name,
				Size:      a.Size,
				CreatedAt: a.CreatedAt,
				Kind:      string(a.Kind),
				Operation: string(a.Operation),
			})
		}
		return rows, nil
	}))
	outputsCmd.AddCommand(newRemoveCommand("Delete job outputs", ctx.outputStore))
	return outputsCmd
}

func newListCommand(short string, withOperation bool, load func(*cobra.Command) ([]listing, error)) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := load(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "No files")
				return nil
			}
			fmt.Fprintln(out, renderListing(rows, withOperation))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func renderListing(rows []listing, withOperation bool) string {
	columns := []column{{title: "Name"}, {title: "Kind"}}
	if withOperation {
		columns = append(columns, column{title: "Operation"})
	}
	columns = append(columns, column{title: "Size", right: true}, column{title: "Created"})

	var total int64
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		row := []string{r.Filename, r.Kind}
		if withOperation {
			row = append(row, r.Operation)
		}
		row = append(row, humanize.IBytes(uint64(r.Size)), r.CreatedAt.Local().Format(stampLayout))
		cells = append(cells, row)
		total += r.Size
	}

	footer := []string{fmt.Sprintf("%d files", len(rows)), ""}
	if withOperation {
		footer = append(footer, "")
	}
	footer = append(footer, humanize.IBytes(uint64(total)), "")

	return renderTable(columns, cells, footer)
}

func newRemoveCommand(short string, open func() (*assets.Store, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "rm NAME...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			for _, name := range args {
				if err := store.Delete(name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", name)
			}
			return nil
		},
	}
}
