package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/whisperedge/pkg/audio/melspec"
	"github.com/haivivi/whisperedge/pkg/cli"
	"github.com/haivivi/whisperedge/pkg/whisper"
)

var (
	filtersBands  int
	filtersFFT    int
	filtersRate   int
	filtersOutput string
	filtersPut    bool
)

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Generate the Whisper mel filterbank asset",
	Long: `Generate Slaney mel filters as a JSON matrix (one array per band), the
layout read by assets.filterbank.

Examples:
  # Print the 80 x 201 Whisper filterbank
  whisperedge filters > mel_filters.json

  # Upload it to the configured asset store
  whisperedge filters --put`,
	Args: cobra.NoArgs,
	RunE: runFilters,
}

func init() {
	filtersCmd.Flags().IntVar(&filtersBands, "bands", melspec.DefaultNumBands, "number of mel bands")
	filtersCmd.Flags().IntVar(&filtersFFT, "fft", melspec.DefaultFFTSize, "FFT size")
	filtersCmd.Flags().IntVar(&filtersRate, "rate", melspec.DefaultSampleRate, "sample rate in Hz")
	filtersCmd.Flags().StringVarP(&filtersOutput, "output", "o", "", "output file (default stdout)")
	filtersCmd.Flags().BoolVar(&filtersPut, "put", false, "store in the configured asset store instead of printing")
	rootCmd.AddCommand(filtersCmd)
}

func runFilters(cmd *cobra.Command, _ []string) error {
	if filtersBands <= 0 || filtersFFT <= 0 || filtersRate <= 0 {
		return fmt.Errorf("bands, fft and rate must be positive")
	}
	fb := melspec.NewFilterbank(filtersBands, filtersFFT, filtersRate)
	data, err := json.Marshal(fb)
	if err != nil {
		return err
	}

	if !filtersPut {
		return output(cmd, append(data, '\n'), cli.FormatRaw, filtersOutput)
	}

	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	newLogger(cfg)
	store, err := openAssets(cfg)
	if err != nil {
		return err
	}
	name := cfg.Assets.Filterbank
	if name == "" {
		name = whisper.DefaultFilterbankAsset
	}
	if err := store.Put(cmd.Context(), name, data); err != nil {
		return err
	}
	cli.PrintSuccess(cmd.ErrOrStderr(), "Stored %dx%d filterbank (%s) as %s in %s",
		fb.NumBands, fb.NumBins, cli.FormatBytes(int64(len(data))), name, store)
	if cfg.Assets.Filterbank == "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Set assets.filterbank: %s to use it.\n", name)
	}
	return nil
}
