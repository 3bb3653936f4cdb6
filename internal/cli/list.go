package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/api/rpcapi"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/corpus"
)

func newListCmd(a *app) *cobra.Command {
	var (
		remote string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed corpora",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				list []corpus.Summary
				err  error
			)
			if remote != "" {
				list, err = listRemote(cmd.Context(), remote)
			} else {
				list, err = a.listLocal(cmd.Context())
			}
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), list)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No corpora indexed.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tWORDS\tDISTINCT\tCREATED")
			for _, s := range list {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", s.Name, s.WordCount, s.DistinctWords, s.CreatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&remote, "remote", "r", "", "list a server's corpora over RPC")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func (a *app) listLocal(ctx context.Context) ([]corpus.Summary, error) {
	reg, closeStore, err := a.openWorkspace(ctx)
	if err != nil {
		return nil, err
	}
	defer closeStore()
	return reg.List(), nil
}

func listRemote(ctx context.Context, addr string) ([]corpus.Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	client, err := rpcapi.Dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	defer client.Close()
	infos, err := client.ListCorpora(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]corpus.Summary, 0, len(infos))
	for _, info := range infos {
		list = append(list, corpus.Summary{
			Name:          info.Name,
			WordCount:     info.WordCount,
			DistinctWords: info.DistinctWords,
			ContentHash:   info.ContentHash,
			CreatedAt:     time.Unix(info.CreatedAt, 0).UTC(),
		})
	}
	return list, nil
}
