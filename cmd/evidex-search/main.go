// Command evidex-search runs catalog searches offline, without the HTTP server.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/evidex/internal/logger"
	catalogrepo "github.com/kailas-cloud/evidex/internal/repository/catalog"
	cataloguc "github.com/kailas-cloud/evidex/internal/usecase/catalog"
	"github.com/kailas-cloud/evidex/internal/version"
)

var (
	catalogDir  string
	catalogName string
	verbose     bool

	searchCategory string
	searchOffset   int
	searchLimit    int

	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "evidex-search",
	Short: "Search the evidex catalogs from the terminal",
	Long: `evidex-search runs the same fuzzy matcher as the evidex server over the
built-in catalogs (or a directory of catalog YAML files), with spelling
correction and "did you mean" suggestions.`,
	Version:      version.String(),
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		level := ""
		if verbose {
			level = "debug"
		}
		l, err := logger.NewLogger("cli", level)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		log = l
		return nil
	},
}

var catalogsCmd = &cobra.Command{
	Use:   "catalogs",
	Short: "List the available catalogs",
	Args:  cobra.NoArgs,
	RunE:  runCatalogs,
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Fuzzy search one catalog",
	Long: `Search one catalog. The query is matched as a substring of titles, authors,
categories and descriptions; when nothing matches, misspelled words are
corrected against the catalog's vocabulary. An empty query lists everything.`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

var correctCmd = &cobra.Command{
	Use:   "correct <word>",
	Short: "Suggest a spelling correction for a single word",
	Args:  cobra.ExactArgs(1),
	RunE:  runCorrect,
}

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Print the correction vocabulary of a catalog",
	Args:  cobra.NoArgs,
	RunE:  runCorpus,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogDir, "dir", "", "Directory of catalog YAML files (default: built-in catalogs)")
	rootCmd.PersistentFlags().StringVarP(&catalogName, "catalog", "c", "site", "Catalog to search")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	searchCmd.Flags().StringVar(&searchCategory, "category", "", "Only return records of this category ID")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "Number of records to skip")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "Maximum records to print")

	rootCmd.AddCommand(catalogsCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(correctCmd)
	rootCmd.AddCommand(corpusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newService() (*cataloguc.Service, error) {
	repo, err := catalogrepo.New(catalogDir)
	if err != nil {
		return nil, fmt.Errorf("load catalogs: %w", err)
	}
	return cataloguc.New(repo), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return logger.ContextWithLogger(ctx, log)
}

func runCatalogs(cmd *cobra.Command, _ []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, s := range svc.List(commandContext(cmd)) {
		fmt.Fprintf(out, "%s  %s\n", nameStyle.Render(fmt.Sprintf("%-12s", s.Name)), s.Title)
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("              %d records, %d categories", s.Records, s.Categories)))
	}
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	query := strings.Join(args, " ")
	page, err := svc.Search(commandContext(cmd), catalogName, cataloguc.Query{
		Text:     query,
		Category: searchCategory,
		Offset:   searchOffset,
		Limit:    searchLimit,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if page.Suggestion != "" {
		fmt.Fprintln(out, suggestionStyle.Render(fmt.Sprintf("Did you mean %q?", page.Suggestion)))
	}
	if page.Total == 0 {
		fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("No results for %q in %s.", query, catalogName)))
		return nil
	}
	if len(page.Records) == 0 {
		fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("No more results past %d of %d.", page.Offset, page.Total)))
		return nil
	}
	for i := range page.Records {
		r := &page.Records[i]
		line := titleStyle.Render(r.Title)
		if r.Author != "" {
			line += mutedStyle.Render(" by " + r.Author)
		}
		fmt.Fprintf(out, "%s %s\n", idStyle.Render(r.ID), line)
	}
	shown := page.Offset + len(page.Records)
	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%d-%d of %d (%s)", page.Offset+1, shown, page.Total, page.Outcome)))
	return nil
}

func runCorrect(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	c, err := svc.Correct(commandContext(cmd), catalogName, args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if w, ok := c.Word(); ok {
		fmt.Fprintf(out, "%s -> %s\n", args[0], successStyle.Render(w))
		return nil
	}
	fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("No correction for %q.", args[0])))
	return nil
}

func runCorpus(cmd *cobra.Command, _ []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	corpus, err := svc.Corpus(commandContext(cmd), catalogName)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, w := range corpus.Words() {
		fmt.Fprintln(out, w)
	}
	log.Debug("corpus printed", zap.String("catalog", catalogName), zap.Int("words", corpus.Len()))
	return nil
}
