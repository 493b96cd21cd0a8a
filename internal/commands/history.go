package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

)

// HistoryCmd prints recent searches.
var HistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent searches",
	RunE:  runHistory,
}

// BoardsCmd lists the supported boards.
var BoardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "List supported boards",
	RunE:  runBoards,
}

func init() {
	HistoryCmd.Flags().String("board", "", "Only show searches of this board")
	HistoryCmd.Flags().IntP("limit", "n", 20, "Maximum number of entries")
	HistoryCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	board, _ := cmd.Flags().GetString("board")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a := newApp()
	if err := a.Startup(ctx); err != nil {
		return err
	}
	defer a.Shutdown(context.Background())

	entries, err := a.Search().History(ctx, board, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No searches recorded yet.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tBOARD\tTAGS\tRANDOM\tSTATUS\tRESULTS\tORIGIN")
	for _, e := range entries {
		status := fmt.Sprint(e.StatusCode)
		if e.Error != "" {
			status = "error"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%d\t%s\n",
			e.CreatedAt.Local().Format(time.DateTime), e.Board, strings.Join(e.Tags, " "),
			e.Random, status, e.TotalData, e.Origin)
	}
	return w.Flush()
}

func runBoards(cmd *cobra.Command, args []string) error {
	a := newApp()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tRANDOM\tUPSTREAM\tDESCRIPTION")
	for _, info := range a.Boards() {
		upstream := cfg.BoardURL(info.Name)
		if upstream == "" {
			upstream = info.BaseURL
		}
		fmt.Fprintf(w, "%s\t%t\t%s\t%s\n", info.Name, info.Random, upstream, info.Description)
	}
	return w.Flush()
}
