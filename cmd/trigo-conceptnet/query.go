package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/trigo-conceptnet/pkg/rdf"
	"github.com/aleksaelezovic/trigo-conceptnet/pkg/store"
)

// patternOptions holds the pattern flags shared by query and count.
type patternOptions struct {
	Subject   string
	Predicate string
	Object    string
	Graph     string
	Offset    int
	Limit     int
}

func (p *patternOptions) register(cmd *cobra.Command, paging bool) {
	cmd.Flags().StringVarP(&p.Subject, "subject", "s", "", "subject term, e.g. http://conceptnet.io/c/en/dog")
	cmd.Flags().StringVarP(&p.Predicate, "predicate", "p", "", "predicate term")
	cmd.Flags().StringVarP(&p.Object, "object", "o", "", "object term")
	cmd.Flags().StringVarP(&p.Graph, "graph", "g", "", "graph term, mapped to a ConceptNet dataset")
	if paging {
		cmd.Flags().IntVar(&p.Offset, "offset", 0, "number of edges to skip")
		cmd.Flags().IntVar(&p.Limit, "limit", 0, "maximum number of edges")
	}
}

// query builds the store query. Variables leave their position unbound.
func (p *patternOptions) query(cmd *cobra.Command) (*store.Query, error) {
	query := &store.Query{}

	positions := []struct {
		name  string
		value string
		dst   *rdf.Term
	}{
		{"subject", p.Subject, &query.Subject},
		{"predicate", p.Predicate, &query.Predicate},
		{"object", p.Object, &query.Object},
		{"graph", p.Graph, &query.Graph},
	}
	for _, pos := range positions {
		term, err := rdf.ParseTerm(pos.value)
		if err != nil {
			return nil, fmt.Errorf("invalid --%s: %w", pos.name, err)
		}
		if term != nil && term.Type() != rdf.TermTypeVariable {
			*pos.dst = term
		}
	}

	flags := cmd.Flags()
	if flags.Changed("offset") {
		if p.Offset < 0 {
			return nil, fmt.Errorf("invalid --offset: must not be negative")
		}
		query.Offset = store.Int(p.Offset)
	}
	if flags.Changed("limit") {
		if p.Limit < 0 {
			return nil, fmt.Errorf("invalid --limit: must not be negative")
		}
		query.Limit = store.Int(p.Limit)
	}
	return query, nil
}

func newQueryCommand(rootOpts *rootOptions) *cobra.Command {
	pattern := &patternOptions{}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print the quads matching a pattern as N-Quads",
		Long: `Print the quads matching a pattern as N-Quads, followed by a comment
line with the total count of the pattern.

Example:
  trigo-conceptnet query --subject http://conceptnet.io/c/en/dog --limit 10
  trigo-conceptnet query -p '<http://conceptnet.io/r/IsA>' --language en`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPattern(cmd, rootOpts, pattern, true)
		},
	}
	pattern.register(cmd, true)
	return cmd
}

func newCountCommand(rootOpts *rootOptions) *cobra.Command {
	pattern := &patternOptions{}

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Print the total count of a pattern",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPattern(cmd, rootOpts, pattern, false)
		},
	}
	pattern.register(cmd, false)
	return cmd
}

func runPattern(cmd *cobra.Command, rootOpts *rootOptions, pattern *patternOptions, printQuads bool) error {
	logger := rootOpts.logger(cmd.ErrOrStderr())

	cfg, err := rootOpts.loadConfig(cmd)
	if err != nil {
		return err
	}
	query, err := pattern.query(cmd)
	if err != nil {
		return err
	}
	if !printQuads {
		// Only the metadata is wanted; keep the edge page small.
		query.Limit = store.Int(1)
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stream, err := a.datasource.Query(ctx, query)
	if err != nil {
		return err
	}
	return printStream(ctx, cmd.OutOrStdout(), stream, printQuads)
}

func printStream(ctx context.Context, out io.Writer, stream *store.QuadStream, printQuads bool) error {
	quads, meta, err := store.Collect(ctx, stream)
	if err != nil {
		return err
	}

	if printQuads {
		for _, quad := range quads {
			if _, err := fmt.Fprintln(out, quad.String()); err != nil {
				return err
			}
		}
		_, err = fmt.Fprintf(out, "# totalCount: %d (%s)\n", meta.TotalCount, exactness(meta))
		return err
	}
	_, err = fmt.Fprintf(out, "%d %s\n", meta.TotalCount, exactness(meta))
	return err
}

func exactness(meta store.Metadata) string {
	if meta.HasExactCount {
		return "exact"
	}
	return "estimate"
}
