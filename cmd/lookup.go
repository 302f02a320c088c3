package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vzahanych/ph-weather/internal/config"
	"github.com/vzahanych/ph-weather/internal/lookup"
	"github.com/vzahanych/ph-weather/internal/presentation"
)

func lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <city>",
		Short: "Look up the current weather for one city",
		Example: `  weather lookup Manila
  weather lookup "Quezon City"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := newController(config.GetConfig())
			sess := lookup.NewSession("cli")

			res := ctrl.Search(cmd.Context(), sess, strings.Join(args, " "))
			if err := presentation.WriteText(cmd.OutOrStdout(), presentation.Derive(res.State)); err != nil {
				return err
			}
			if res.Outcome != lookup.OutcomeDisplayed {
				return fmt.Errorf("lookup ended with %s", res.Outcome)
			}
			return nil
		},
	}
}

func interactiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Search repeatedly, one city per line",
		Long:  `Read city names from standard input, one per line, and print the updated view after each search. A failed search keeps the last weather on screen.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := newController(config.GetConfig())
			return runInteractive(cmd.Context(), ctrl, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// Searcher is the part of lookup.Controller the interactive loop needs.
type Searcher interface {
	Search(ctx context.Context, sess *lookup.Session, input string) lookup.Result
}

func runInteractive(ctx context.Context, s Searcher, in io.Reader, out io.Writer) error {
	sess := lookup.NewSession("interactive")

	if err := presentation.WriteText(out, presentation.Derive(sess.State())); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for {
		if _, err := fmt.Fprint(out, "Enter city (e.g. Manila): "); err != nil {
			return err
		}
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		res := s.Search(ctx, sess, scanner.Text())
		if err := presentation.WriteText(out, presentation.Derive(res.State)); err != nil {
			return err
		}
	}
}
