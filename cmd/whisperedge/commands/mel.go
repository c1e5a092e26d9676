package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/haivivi/whisperedge/pkg/audio/melspec"
	"github.com/haivivi/whisperedge/pkg/audio/pcm"
	"github.com/haivivi/whisperedge/pkg/audio/resampler"
	"github.com/haivivi/whisperedge/pkg/cli"
	"github.com/haivivi/whisperedge/pkg/whisper"
)

var (
	melRate    int
	melFormat  string
	melOutput  string
	melNoPad   bool
	melReduced bool
)

var melCmd = &cobra.Command{
	Use:   "mel <file>",
	Short: "Compute the log-mel spectrogram of a file",
	Long: `Compute the normalized 80-band log-mel spectrogram of a WAV or raw
s16le file, resampled to 16 kHz and padded or trimmed to the 3000 frames a
Whisper model reads.

The table format prints statistics; yaml, json and msgpack include the
band-major data.

Examples:
  whisperedge mel speech.wav
  whisperedge mel --rate 8000 -f msgpack -o speech.mel speech.raw
  whisperedge mel --no-pad -f json speech.wav`,
	Args: cobra.ExactArgs(1),
	RunE: runMel,
}

func init() {
	melCmd.Flags().IntVarP(&melRate, "rate", "r", 0, "input sample rate in Hz")
	melCmd.Flags().StringVarP(&melFormat, "format", "f", "table", "output format (table, yaml, json, msgpack)")
	melCmd.Flags().StringVarP(&melOutput, "output", "o", "", "output file (default stdout)")
	melCmd.Flags().BoolVar(&melNoPad, "no-pad", false, "keep the natural frame count")
	melCmd.Flags().BoolVar(&melReduced, "reduced", false, "fold the spectrum to a quarter of the FFT bins")
	rootCmd.AddCommand(melCmd)
}

// melDump is the printable spectrogram.
type melDump struct {
	File      string    `json:"file"`
	NumBands  int       `json:"num_bands"`
	NumFrames int       `json:"num_frames"`
	Frames    int       `json:"frames"`
	Min       float32   `json:"min"`
	Max       float32   `json:"max"`
	Data      []float32 `json:"data"`
}

func newMelDump(file string, mel *melspec.Spectrogram, frames int) melDump {
	d := melDump{
		File:      file,
		NumBands:  mel.NumBands,
		NumFrames: mel.NumFrames,
		Frames:    frames,
		Data:      mel.Data,
	}
	for i, v := range mel.Data {
		if i == 0 || v < d.Min {
			d.Min = v
		}
		if i == 0 || v > d.Max {
			d.Max = v
		}
	}
	return d
}

// Summary implements cli.Summarizer.
func (d melDump) Summary() cli.Summary {
	return cli.Summary{
		Title: "Log-mel spectrogram",
		Rows: []cli.Row{
			{Label: "file", Value: d.File},
			{Label: "shape", Value: fmt.Sprintf("%d x %d", d.NumBands, d.NumFrames)},
			{Label: "frames", Value: strconv.Itoa(d.Frames)},
			{Label: "range", Value: fmt.Sprintf("[%.4f, %.4f]", d.Min, d.Max)},
		},
	}
}

func runMel(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(melFormat, cli.FormatTable)
	if err != nil {
		return err
	}
	if format == cli.FormatRaw {
		return fmt.Errorf("mel does not support raw output")
	}
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	newLogger(cfg)
	ctx := cmd.Context()

	samples, rate, err := readAudio(args[0], melRate, cfg.Audio.DefaultSampleRate)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("%s: %w: no samples", args[0], pcm.ErrInvalidInput)
	}

	fb, err := loadFilterbank(ctx, cfg)
	if err != nil {
		return err
	}
	mcfg := melspec.DefaultConfig()
	mcfg.ReducedResolution = melReduced
	ex, err := melspec.NewExtractor(mcfg, fb)
	if err != nil {
		return err
	}
	method, err := resampler.ParseMethod(cfg.Resample.Method)
	if err != nil {
		return err
	}

	resampled, err := method.Apply(pcm.ToFloat32(samples), rate, whisper.ModelSampleRate)
	if err != nil {
		return err
	}
	mel, err := ex.Extract(resampled)
	if err != nil {
		return err
	}
	frames := mel.NumFrames
	if !melNoPad {
		if mel, err = melspec.FitFrames(mel, melspec.ModelFrames); err != nil {
			return err
		}
	}
	return output(cmd, newMelDump(args[0], mel, frames), format, melOutput)
}
