package commands

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"ihaboard/internal/imageboard"
	"ihaboard/internal/service"
)

// SearchCmd runs one search and prints the envelope.
var SearchCmd = &cobra.Command{
	Use:   "search <board> [tags...]",
	Short: "Run one search and print the result",
	Long:  `Search a board once and print the result envelope as JSON. Tags may be passed as separate arguments or joined with "+".`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	SearchCmd.Flags().BoolP("random", "r", false, "Random selection instead of newest posts")
}

func runSearch(cmd *cobra.Command, args []string) error {
	random, _ := cmd.Flags().GetBool("random")
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a := newApp()
	if err := a.Startup(ctx); err != nil {
		return err
	}
	defer a.Shutdown(context.Background())

	env, err := a.Search().Search(ctx, service.SearchRequest{
		Board:  args[0],
		Tags:   imageboard.SplitTags(strings.Join(args[1:], " ")),
		Random: random,
		Origin: service.OriginCLI,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "    ")
	return enc.Encode(env)
}
