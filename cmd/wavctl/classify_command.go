package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eric-edouard/life-recorder/internal/ingest"
	"github.com/eric-edouard/life-recorder/internal/vad"
)

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var engineFlag string
	var thresholdFlag float32

	cmd := &cobra.Command{
		Use:   "classify <file.wav>...",
		Short: "Report whether WAV files contain speech",
		Long: `Run the voice activity gate over WAV files and print the verdict and
the object name suffix the ingestion service would use. Files that cannot
be classified are reported as novoice, as the service does.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}

			engine := cfg.VAD.Engine
			if engineFlag != "" {
				engine = engineFlag
			}
			threshold := cfg.VAD.Threshold
			if cmd.Flags().Changed("threshold") {
				threshold = thresholdFlag
			}

			logger := ctx.logger(cmd)

			detector, err := vad.NewDetector(vad.DetectorConfig{
				Engine:      engine,
				ModelPath:   cfg.VAD.ModelPath,
				OnnxLibPath: cfg.VAD.OnnxRuntimePath,
				WindowSize:  cfg.VAD.WindowSize,
			})
			if err != nil {
				return fmt.Errorf("failed to load %s detector: %w", engine, err)
			}
			if detector != nil {
				defer detector.Close()
			}

			gate := vad.NewGate(detector, vad.GateConfig{
				Threshold:          threshold,
				MinSpeechDuration:  cfg.VAD.GetMinSpeechDuration(),
				MinSilenceDuration: cfg.VAD.GetMinSilenceDuration(),
			}, logger, nil)

			out := cmd.OutOrStdout()
			for _, path := range args {
				startTime := time.Now()
				hasVoice := gate.Classify(cmd.Context(), path)

				suffix := ingest.SuffixNoVoice
				if hasVoice {
					suffix = ingest.SuffixVoice
				}
				fmt.Fprintf(out, "%s\t%s\t%s\n", path, suffix, time.Since(startTime).Round(time.Millisecond))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&engineFlag, "engine", "", "Detector engine: silero, energy or none (default from config)")
	cmd.Flags().Float32Var(&thresholdFlag, "threshold", 0.5, "Speech probability threshold")

	return cmd
}
