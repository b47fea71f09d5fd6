package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"demo-labeler/labeler"
	"demo-labeler/models"
)

const summaryConcurrency = 8

var clearYes bool

var demosCmd = &cobra.Command{
	Use:   "demos",
	Short: "List demos with their frame and label counts",
	Args:  cobra.NoArgs,
	RunE:  runDemos,
}

var clearCmd = &cobra.Command{
	Use:   "clear <demo>",
	Short: "Reset every label of a demo to unset",
	Args:  cobra.ExactArgs(1),
	RunE:  runClear,
}

func init() {
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Do not ask for confirmation")
}

type demoSummary struct {
	name   string
	length int
	good   int
	bad    int
	unset  int
}

func runDemos(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closer, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	remote, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Client.RequestTimeout)
	defer cancel()
	summaries, err := summarizeDemos(ctx, remote)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(out, "no demos")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DEMO\tFRAMES\tGOOD\tBAD\tUNSET")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", s.name, s.length, s.good, s.bad, s.unset)
	}
	return w.Flush()
}

// summarizeDemos fetches the labels of every demo with bounded concurrency.
func summarizeDemos(ctx context.Context, remote labeler.Remote) ([]demoSummary, error) {
	demos, err := remote.ListDemos(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list demos: %w", err)
	}

	summaries := make([]demoSummary, len(demos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryConcurrency)
	for i, demo := range demos {
		g.Go(func() error {
			labels, err := remote.Labels(gctx, demo)
			if err != nil {
				return fmt.Errorf("failed to get labels of %s: %w", demo, err)
			}
			s := demoSummary{name: demo, length: len(labels)}
			for _, l := range labels {
				switch l {
				case models.LabelGood:
					s.good++
				case models.LabelBad:
					s.bad++
				default:
					s.unset++
				}
			}
			summaries[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func runClear(cmd *cobra.Command, args []string) error {
	demo := args[0]
	if !clearYes {
		fmt.Fprintf(cmd.OutOrStdout(), "Clear every label of %s? [y/N] ", demo)
		var answer string
		fmt.Fscanln(cmd.InOrStdin(), &answer)
		if answer != "y" && answer != "Y" {
			fmt.Fprintln(cmd.OutOrStdout(), "aborted")
			return nil
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closer, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	remote, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Client.RequestTimeout)
	defer cancel()
	if err := remote.ClearLabels(ctx, demo); err != nil {
		return fmt.Errorf("failed to clear labels of %s: %w", demo, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "cleared labels of %s\n", demo)
	return nil
}
