package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/linkdex/internal/domain/collection"
	"github.com/kailas-cloud/linkdex/internal/domain/link"
	"github.com/kailas-cloud/linkdex/internal/domain/search/request"
	"github.com/kailas-cloud/linkdex/internal/domain/search/result"
	searchuc "github.com/kailas-cloud/linkdex/internal/usecase/search"
	"github.com/kailas-cloud/linkdex/internal/version"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		contextType string
		sessionID   string
		confirm     bool
		jsonOut     bool
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search activities, zones and decisions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := request.New(args[0], contextType, sessionID, confirm)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			e, err := opts.openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			resp := e.Search.IntelligentSearch(ctx, req.Query(), searchuc.Options{
				ContextType:         req.ContextType(),
				RequireConfirmation: req.RequireConfirmation(),
				SessionID:           req.SessionID(),
			})
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			printResponse(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	cmd.Flags().StringVar(&contextType, "context", "", "context type hint")
	cmd.Flags().StringVar(&sessionID, "session", "", "conversation session id")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "ask for confirmation on weak or ambiguous results")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output the full response as JSON")
	return cmd
}

func printResponse(w io.Writer, resp result.Response) {
	a := resp.Analysis
	_, _ = fmt.Fprintf(w, "intent: %s  complexity: %s  results: %d  threshold: %.2f\n",
		a.Intent.Primary, a.Complexity, a.TotalResults, resp.Threshold)
	if resp.IsFallback {
		_, _ = fmt.Fprintf(w, "fallback: %s\n", a.Error)
	}
	if resp.NeedsConfirmation {
		_, _ = fmt.Fprintln(w, "confirmation requested")
	}

	sections := []struct {
		kind collection.Kind
		hits []result.Hit
	}{
		{collection.Activities, resp.Activities},
		{collection.Zones, resp.Zones},
		{collection.Decisions, resp.Decisions},
	}
	for _, s := range sections {
		if len(s.hits) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(w, "\n%s\n", s.kind)
		for i, h := range s.hits {
			_, _ = fmt.Fprintf(w, "  %d. [%s] %s (%s, %s)\n", i+1, h.ID, h.Display.Title, h.Display.Confidence, h.Method)
			for _, n := range h.Notes {
				_, _ = fmt.Fprintf(w, "     - %s\n", n)
			}
		}
	}
	if len(resp.Links) > 0 {
		_, _ = fmt.Fprintln(w, "\nlinks")
		for _, l := range resp.Links {
			_, _ = fmt.Fprintf(w, "  %s: %s -> %s (%.2f)\n", l.Kind, l.From.ID, l.To.ID, l.Confidence)
		}
	}
}

func newLinkCmd(opts *rootOptions) *cobra.Command {
	var (
		kind         string
		candidateID  string
		conversation []string
	)
	cmd := &cobra.Command{
		Use:   "link [text]",
		Short: "Resolve a candidate preview to its full record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := collection.Parse(kind)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			e, err := opts.openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			res, err := e.Linker.Link(ctx, link.Request{
				CandidateID:  candidateID,
				Text:         args[0],
				Collection:   k,
				Conversation: conversation,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&kind, "collection", "c", collection.Activities.String(), "collection to link against")
	cmd.Flags().StringVar(&candidateID, "id", "", "candidate id")
	cmd.Flags().StringSliceVar(&conversation, "history", nil, "previous user turns")
	return cmd
}

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var contextType string
	cmd := &cobra.Command{
		Use:   "analyze [query]",
		Short: "Print the query analysis without searching",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(args[0]) == "" {
				return fmt.Errorf("query is empty")
			}
			ctx := cmd.Context()
			e, err := opts.openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			return printJSON(cmd.OutOrStdout(), e.Analyzer.Analyze(args[0], contextType))
		},
	}
	cmd.Flags().StringVar(&contextType, "context", "general", "context type hint")
	return cmd
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print engine statistics and loaded collection sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := opts.openEngine(ctx)
			if err != nil {
				return err
			}
			defer e.close(ctx)

			return printJSON(cmd.OutOrStdout(), e.Search.Stats())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of linkdexctl",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "linkdexctl %s (%s)\n", version.Version, version.Commit)
		},
	}
}
