package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/whisperedge/pkg/audio/pcm"
	"github.com/haivivi/whisperedge/pkg/cli"
	"github.com/haivivi/whisperedge/pkg/whisper"
)

var (
	transcribeRate   int
	transcribeFormat string
	transcribeOutput string
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <file>",
	Short: "Transcribe a WAV or raw s16le file",
	Long: `Transcribe a WAV or raw s16le mono file ("-" reads stdin).

The sample rate comes from --rate, then the WAV header, then
audio.default_sample_rate.

Examples:
  whisperedge transcribe speech.wav
  whisperedge transcribe --rate 8000 -f raw speech.raw
  arecord -f S16_LE -r 16000 | whisperedge transcribe --rate 16000 -`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	transcribeCmd.Flags().IntVarP(&transcribeRate, "rate", "r", 0, "input sample rate in Hz")
	transcribeCmd.Flags().StringVarP(&transcribeFormat, "format", "f", "table", "output format (table, yaml, json, msgpack, raw)")
	transcribeCmd.Flags().StringVarP(&transcribeOutput, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(transcribeCmd)
}

// transcript is the printable result of a transcription.
type transcript struct {
	File       string  `json:"file"`
	Text       string  `json:"text"`
	Tokens     []int64 `json:"tokens"`
	SampleRate int     `json:"sample_rate"`
	Samples    int     `json:"samples"`
	Frames     int     `json:"frames"`
	Duration   string  `json:"duration"`
	Elapsed    string  `json:"elapsed"`
	Cached     bool    `json:"cached"`
}

func newTranscript(file string, res *whisper.Result, elapsed time.Duration) transcript {
	return transcript{
		File:       file,
		Text:       res.Text,
		Tokens:     res.Tokens,
		SampleRate: res.SampleRate,
		Samples:    res.Samples,
		Frames:     res.Frames,
		Duration:   cli.FormatDuration(res.Audio),
		Elapsed:    cli.FormatDuration(elapsed),
		Cached:     res.Cached,
	}
}

// Summary implements cli.Summarizer.
func (t transcript) Summary() cli.Summary {
	s := cli.Summary{
		Title: "Transcript",
		Rows: []cli.Row{
			{Label: "file", Value: t.File},
			{Label: "audio", Value: fmt.Sprintf("%s @ %d Hz", t.Duration, t.SampleRate)},
			{Label: "frames", Value: strconv.Itoa(t.Frames)},
			{Label: "tokens", Value: strconv.Itoa(len(t.Tokens))},
			{Label: "elapsed", Value: t.Elapsed},
		},
		Body: t.Text,
	}
	if t.Cached {
		s.Note = "served from transcript cache"
	}
	return s
}

// String is the raw output.
func (t transcript) String() string {
	return t.Text + "\n"
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(transcribeFormat, cli.FormatTable)
	if err != nil {
		return err
	}
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	ctx := cmd.Context()

	samples, rate, err := readAudio(args[0], transcribeRate, cfg.Audio.DefaultSampleRate)
	if err != nil {
		return err
	}

	p, err := openPipeline(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer p.Close()

	start := time.Now()
	res, err := p.tr.Transcribe(ctx, pcm.EncodeS16LE(samples), rate)
	if err != nil {
		return err
	}
	logger.Debug("whisperedge: transcribed", "file", args[0], "tokens", len(res.Tokens), "cached", res.Cached)

	return output(cmd, newTranscript(args[0], res, time.Since(start)), format, transcribeOutput)
}
