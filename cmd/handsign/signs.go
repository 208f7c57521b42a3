package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSignsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "signs",
		Short: "List the vocabulary and how many samples each sign has",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := rt.cfg.LoadVocabulary()
			if err != nil {
				return err
			}
			st, err := rt.openStore(v)
			if err != nil {
				return err
			}
			defer st.Close()

			counts, err := st.Samples().CountBySign(v.Len())
			if err != nil {
				return err
			}
			printCounts(cmd.OutOrStdout(), v.Names(), counts)
			return nil
		},
	}
}

func printCounts(w io.Writer, names []string, counts []int) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tSIGN\tSAMPLES")
	total := 0
	for i, name := range names {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", i, name, counts[i])
		total += counts[i]
	}
	fmt.Fprintf(tw, "\tTOTAL\t%d\n", total)
	tw.Flush()
}
