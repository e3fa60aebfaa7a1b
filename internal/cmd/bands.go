package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/MeKo-Tech/hisrgb/internal/band"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var bandsCmd = &cobra.Command{
	Use:   "bands",
	Short: "List the bands in the mapset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store *band.Store) error {
			return listBands(ctx, store, cmd.OutOrStdout())
		})
	},
}

var bandsDescribeCmd = &cobra.Command{
	Use:   "describe <band>",
	Short: "Show the metadata of a band",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store *band.Store) error {
			return describeBand(ctx, store, args[0], cmd.OutOrStdout())
		})
	},
}

var bandsRemoveCmd = &cobra.Command{
	Use:   "remove <band>...",
	Short: "Remove bands from the mapset",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store *band.Store) error {
			for _, name := range args {
				if err := store.Remove(ctx, name); err != nil {
					return err
				}
				logger.Info("Removed band", "band", name)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(bandsCmd)
	bandsCmd.AddCommand(bandsDescribeCmd)
	bandsCmd.AddCommand(bandsRemoveCmd)
}

func withStore(fn func(ctx context.Context, store *band.Store) error) error {
	if logger == nil {
		initLogging()
	}

	store, err := band.Open(viper.GetString("store"))
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := signalContext()
	defer cancel()

	return fn(ctx, store)
}

func listBands(ctx context.Context, store *band.Store, out io.Writer) error {
	bands, err := store.List(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSEMANTIC\tROWS\tCOLS\tCREATED")
	for _, m := range bands {
		semantic := m.Semantic
		if semantic == "" {
			semantic = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			m.Name, semantic, m.Rows, m.Columns, m.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

func describeBand(ctx context.Context, store *band.Store, name string, out io.Writer) error {
	m, err := store.Describe(ctx, name)
	if err != nil {
		return err
	}
	written, err := store.WrittenRows(ctx, name)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "name:\t%s\n", m.Name)
	fmt.Fprintf(tw, "semantic:\t%s\n", m.Semantic)
	fmt.Fprintf(tw, "description:\t%s\n", m.Description)
	fmt.Fprintf(tw, "rows:\t%d (%d written)\n", m.Rows, written)
	fmt.Fprintf(tw, "cols:\t%d\n", m.Columns)
	fmt.Fprintf(tw, "region:\t%s\n", band.FormatRegion(m.Region))
	fmt.Fprintf(tw, "created:\t%s\n", m.CreatedAt.Format("2006-01-02 15:04:05"))
	return tw.Flush()
}
