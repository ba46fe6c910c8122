package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"estatekg/relate/internal/config"
	"estatekg/relate/internal/model"
)

var (
	queryType    string
	queryInbound bool
)

var queryCmd = &cobra.Command{
	Use:   "query <node-id>",
	Short: "List a node's outbound (or inbound) edges, optionally by type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx := cmd.Context()
		store, cleanup, err := openStore(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer cleanup()

		var edges []model.Edge
		if queryInbound {
			edges, err = store.InboundEdges(ctx, args[0], model.EdgeType(queryType))
		} else {
			edges, err = store.OutboundEdges(ctx, args[0], model.EdgeType(queryType))
		}
		if err != nil {
			return err
		}
		if edges == nil {
			edges = []model.Edge{}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(edges)
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryType, "type", "", "Filter by edge type (e.g. SIMILAR_TO)")
	queryCmd.Flags().BoolVar(&queryInbound, "in", false, "List inbound edges instead of outbound")
	rootCmd.AddCommand(queryCmd)
}
