package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/whisperedge/pkg/cli"
	"github.com/haivivi/whisperedge/pkg/whisper"
)

var (
	cacheModel  string
	cacheFormat string
	cacheAll    bool
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or purge the transcript cache",
	Long: `Inspect or purge the transcript cache in cache.dir.

Transcripts are keyed by model and the SHA-256 of the sample rate and audio,
so repeated requests for the same recording skip inference.`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached transcripts",
	Args:  cobra.NoArgs,
	RunE:  runCacheList,
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete cached transcripts",
	Long: `Delete cached transcripts of --model, or of every model with --all.`,
	Args: cobra.NoArgs,
	RunE: runCachePurge,
}

func init() {
	cacheCmd.PersistentFlags().StringVarP(&cacheModel, "model", "m", "", "model name (default all models)")
	cacheListCmd.Flags().StringVarP(&cacheFormat, "format", "f", "table", "output format (table, yaml, json, msgpack)")
	cachePurgeCmd.Flags().BoolVar(&cacheAll, "all", false, "purge every model")

	cacheCmd.AddCommand(cacheListCmd, cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}

// cachedItem is one row of cache list.
type cachedItem struct {
	Model      string    `json:"model"`
	Digest     string    `json:"digest"`
	Text       string    `json:"text"`
	SampleRate int       `json:"sample_rate"`
	Samples    int       `json:"samples"`
	CreatedAt  time.Time `json:"created_at"`
}

type cacheListing struct {
	Items []cachedItem `json:"items"`
}

// Summary implements cli.Summarizer.
func (l cacheListing) Summary() cli.Summary {
	s := cli.Summary{Title: fmt.Sprintf("Cached transcripts (%d)", len(l.Items))}
	for _, it := range l.Items {
		digest := it.Digest
		if len(digest) > 12 {
			digest = digest[:12]
		}
		s.Rows = append(s.Rows, cli.Row{
			Label: it.Model + " " + digest,
			Value: strconv.Quote(truncate(it.Text, 48)),
		})
	}
	if len(l.Items) == 0 {
		s.Note = "cache is empty"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func openTranscriptCache() (*whisper.Cache, func() error, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cfg)
	store, err := openCacheStore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return whisper.NewCache(store, 0), store.Close, nil
}

func runCacheList(cmd *cobra.Command, _ []string) error {
	format, err := cli.ParseOutputFormat(cacheFormat, cli.FormatTable)
	if err != nil {
		return err
	}
	c, closeFn, err := openTranscriptCache()
	if err != nil {
		return err
	}
	defer closeFn()

	listing := cacheListing{Items: []cachedItem{}}
	for e, err := range c.List(cmd.Context(), cacheModel) {
		if err != nil {
			return err
		}
		listing.Items = append(listing.Items, cachedItem{
			Model:      e.Model,
			Digest:     e.Digest,
			Text:       e.Record.Text,
			SampleRate: e.Record.SampleRate,
			Samples:    e.Record.Samples,
			CreatedAt:  e.Record.CreatedAt,
		})
	}
	return output(cmd, listing, format, "")
}

func runCachePurge(cmd *cobra.Command, _ []string) error {
	if cacheModel == "" && !cacheAll {
		return fmt.Errorf("specify --model or --all")
	}
	c, closeFn, err := openTranscriptCache()
	if err != nil {
		return err
	}
	defer closeFn()

	n, err := c.Purge(cmd.Context(), cacheModel)
	if err != nil {
		return err
	}
	target := cacheModel
	if target == "" {
		target = "all models"
	}
	if n < 0 {
		cli.PrintSuccess(cmd.OutOrStdout(), "Purged cached transcripts of %s", target)
	} else {
		cli.PrintSuccess(cmd.OutOrStdout(), "Purged %d cached transcripts of %s", n, target)
	}
	return nil
}
