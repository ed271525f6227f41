package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eric-edouard/life-recorder/internal/audio"
)

func newFrameCommand() *cobra.Command {
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "frame <input.pcm>",
		Short: "Wrap raw 16 kHz mono PCM in a WAV header",
		Long: `Wrap a raw, headerless PCM file in the same 44-byte WAV header the
ingestion service writes. The input must be 16-bit little-endian mono
samples at 16 kHz.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]

			pcm, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", input, err)
			}

			env, err := audio.NewEnvelope(pcm)
			if err != nil {
				return err
			}

			output := outputFlag
			if output == "" {
				output = strings.TrimSuffix(input, filepath.Ext(input)) + ".wav"
			}

			file, err := os.OpenFile(output, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if _, err := env.WriteTo(file); err != nil {
				file.Close()
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("failed to close %s: %w", output, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes)\n", output, env.Size())
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output path (default: input with .wav extension)")

	return cmd
}

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file.wav>...",
		Short: "Print the format and duration of WAV files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}

				info, err := audio.GetWAVInfo(data)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}

				fmt.Fprintf(out, "%s\t%d Hz\t%d ch\t%d bit\t%d samples\t%.3fs\n",
					path, info.SampleRate, info.Channels, info.BitsPerSample, info.NumSamples, info.Duration)
			}
			return nil
		},
	}
}
