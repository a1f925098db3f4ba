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
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/bhasha/internal/catalog"
)

var (
	speakLang   string
	speakInput  string
	speakOutput string
)

var speakCmd = &cobra.Command{
	Use:   "speak [text...]",
	Short: "Synthesize speech for text without translating it",
	Example: `  bhasha speak -t hi -o namaste.mp3 "नमस्ते"
  bhasha speak -t fr -o out.mp3 --speech openai "Bonjour tout le monde"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := inputText(args, speakInput)
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("nothing to speak")
		}
		if !catalog.IsTarget(speakLang) {
			return fmt.Errorf("unsupported language %q", speakLang)
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

		art, err := a.handler.Speak(ctx, text, speakLang)
		if err != nil {
			return fmt.Errorf("speech synthesis failed: %w", err)
		}
		if err := saveArtifact(art, speakOutput); err != nil {
			return err
		}

		fmt.Printf("Saved %s speech to %s\n", catalog.Name(speakLang), speakOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(speakCmd)

	speakCmd.Flags().StringVarP(&speakLang, "lang", "t", catalog.DefaultTarget, "Language of the text")
	speakCmd.Flags().StringVarP(&speakInput, "input", "i", "", "Read the text from a file (- for stdin)")
	speakCmd.Flags().StringVarP(&speakOutput, "output", "o", "", "Output MP3 file (required)")

	speakCmd.MarkFlagRequired("output")
}
