// Command transq is the operator CLI for the translation queue. tick is meant
// to be run from cron when no worker process is deployed.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	api "translation-queue/internal/api"
	"translation-queue/internal/app"
	"translation-queue/internal/config"
	"translation-queue/internal/logger"
	"translation-queue/internal/queue"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "transq",
		Short:         "Inspect and drive the content translation queue",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newEnqueueCmd(),
		newTickCmd(),
		newQueueCmd(),
		newClearCmd(),
		newTokenCmd(),
	)
	return root
}

// withApp loads config, opens the backends and runs fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	lg, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer lg.Sync()

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func newEnqueueCmd() *cobra.Command {
	var (
		langs   string
		docType string
	)
	cmd := &cobra.Command{
		Use:   "enqueue <document-id>...",
		Short: "Queue translations of documents into one or more languages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				languages := splitList(langs)
				if len(languages) == 0 {
					languages = a.Config.TargetLanguages()
				}
				n, err := a.Queue.EnqueueSelection(ctx, queue.Selection{
					DocumentIDs:  args,
					Languages:    languages,
					DocumentType: docType,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d job(s) queued\n", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&langs, "lang", "", "Target languages (comma-separated, default: all configured)")
	cmd.Flags().StringVar(&docType, "type", "", "Only enqueue documents of this type")
	return cmd
}

func newTickCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Process the next pending job, if any",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				job, err := a.Queue.ProcessNext(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if job == nil {
					fmt.Fprintln(out, "queue idle")
					return nil
				}
				if asJSON {
					return json.NewEncoder(out).Encode(job)
				}
				fmt.Fprintf(out, "%s %s -> %s: %s\n", job.ID, job.SourceDocumentID, strings.ToUpper(job.TargetLanguage), job.Message)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the processed job as JSON")
	return cmd
}

func newQueueCmd() *cobra.Command {
	var (
		history bool
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show the translation queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				items, err := a.Queue.Snapshot(ctx, history)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(items)
				}
				printQueue(cmd.OutOrStdout(), items, history)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&history, "history", false, "Include each job's progress log")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newClearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the queue (translated documents are kept)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear without --yes")
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Queue.Clear(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "queue cleared")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm clearing the queue")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign an API bearer token with AUTH_JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			auth := api.NewAuthenticator(cfg.AuthJWTSecret)
			if auth == nil {
				return fmt.Errorf("AUTH_JWT_SECRET is not set")
			}
			token, err := auth.Issue(subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "operator", "Token subject (rate limit key)")
	return cmd
}

func printQueue(w io.Writer, items []queue.SnapshotItem, history bool) {
	if len(items) == 0 {
		fmt.Fprintln(w, "queue is empty")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDOCUMENT\tLANG\tSTATUS\tMESSAGE\tNEW")
	for _, it := range items {
		newID := "-"
		if it.NewDocumentID != nil {
			newID = *it.NewDocumentID
		}
		title := it.DocumentTitle
		if title == "" {
			title = it.DocumentID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", it.ID, title, strings.ToUpper(it.Language), it.Status, it.Message, newID)
		if history {
			for _, e := range it.Log {
				fmt.Fprintf(tw, "\t  %s\t\t%s\t%s\t\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Status, e.Message)
			}
		}
	}
	_ = tw.Flush()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
