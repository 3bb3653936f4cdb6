package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/api/rpcapi"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/distance"
)

type queryResult struct {
	Corpus   string `json:"corpus"`
	Word1    string `json:"word1"`
	Word2    string `json:"word2"`
	Distance int    `json:"distance"`
}

func newQueryCmd(a *app) *cobra.Command {
	var (
		remote  string
		asJSON  bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "query CORPUS WORD1 WORD2",
		Short: "Print the shortest distance between two words",
		Long: `Query prints the minimum positional distance between any occurrence of
WORD1 and any occurrence of WORD2 in CORPUS. Words match exactly.

Examples:
  wdist query books practice coding
  wdist query books makes makes --json
  wdist query books practice coding --remote localhost:9100`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := queryResult{Corpus: args[0], Word1: args[1], Word2: args[2]}
			var err error
			if remote != "" {
				res.Distance, err = queryRemote(cmd.Context(), remote, timeout, res)
			} else {
				res.Distance, err = a.queryLocal(cmd.Context(), res)
			}
			if err != nil {
				if word, ok := distance.MissingWord(err); ok {
					return fmt.Errorf("word %q does not occur in corpus %q", word, res.Corpus)
				}
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Distance)
			return nil
		},
	}
	cmd.Flags().StringVarP(&remote, "remote", "r", "", "query a server's RPC address instead of the local workspace")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "remote call timeout")
	return cmd
}

func (a *app) queryLocal(ctx context.Context, q queryResult) (int, error) {
	reg, closeStore, err := a.openWorkspace(ctx)
	if err != nil {
		return 0, err
	}
	defer closeStore()
	return reg.ShortestDistance(q.Corpus, q.Word1, q.Word2)
}

func queryRemote(ctx context.Context, addr string, timeout time.Duration, q queryResult) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client, err := rpcapi.Dial(ctx, addr)
	if err != nil {
		return 0, err
	}
	defer client.Close()
	resp, err := client.ShortestDistance(ctx, q.Corpus, q.Word1, q.Word2)
	if err != nil {
		return 0, err
	}
	return resp.Distance, nil
}
