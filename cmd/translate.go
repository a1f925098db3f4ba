/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/valpere/bhasha/internal/catalog"
	"github.com/valpere/bhasha/internal/handler"
)

var (
	inputFile  string
	outputFile string
	sourceLang string
	targetLang string
)

var translateCmd = &cobra.Command{
	Use:   "translate [text...]",
	Short: "Translate text and optionally save the spoken translation",
	Long: `Translate text with the configured translation services and synthesize
speech for the result.

The translation goes to stdout. With --output the audio is saved as MP3.

Examples:
  bhasha translate -t hi "Hello, how are you?"
  bhasha translate -s en -t gu -o hospital.mp3 "Where is the hospital?"
  bhasha translate -t es -i notes.txt --translators googleweb,mymemory`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := inputText(args, inputFile)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		res := a.handler.TranslateWithAudio(ctx, text, sourceLang, targetLang)
		defer res.Release()

		return writeResult(os.Stdout, os.Stderr, res, sourceLang, outputFile)
	},
}

// writeResult prints the translation to stdout and notes to stderr. Failures
// the user has already been shown come back as errReported.
func writeResult(stdout, stderr io.Writer, res handler.Result, source, output string) error {
	if res.Status == handler.StatusEmpty {
		return fmt.Errorf("nothing to translate")
	}
	fmt.Fprintln(stdout, res.TranslatedText)
	if res.Status == handler.StatusTranslationFailed {
		return errReported
	}

	if res.DetectedLang != "" && source == catalog.AutoDetect {
		fmt.Fprintf(stderr, "Detected source language: %s\n", catalog.Name(res.DetectedLang))
	}

	if res.Status == handler.StatusSpeechFailed {
		fmt.Fprintln(stderr, res.Failure.Message())
		if output != "" {
			return errReported
		}
		return nil
	}

	if output != "" {
		if err := saveArtifact(res.Audio, output); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Audio saved to %s\n", output)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Read the text from a file (- for stdin)")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Save the spoken translation as MP3")
	translateCmd.Flags().StringVarP(&sourceLang, "source", "s", catalog.DefaultSource, "Source language code")
	translateCmd.Flags().StringVarP(&targetLang, "target", "t", catalog.DefaultTarget, "Target language code")
}
