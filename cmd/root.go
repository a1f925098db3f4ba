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
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "0.3.0"

var envFile string

// errReported makes the command exit non-zero for a failure that was already
// printed.
var errReported = errors.New("already reported")

var rootCmd = &cobra.Command{
	Use:   "bhasha",
	Short: "Translate text and listen to the result",
	Long: `Bhasha translates text between 20 languages and reads the translation
aloud. It runs as a small web UI (bhasha serve) or from the command line.

Translation backends: googleweb (default, no key), google (Cloud Translation),
mymemory, llm (any OpenAI-compatible chat endpoint). Speech backends: googletts (default, no key), elevenlabs, openai.

Every flag can also be set through a BHASHA_* environment variable or a .env
file, e.g. BHASHA_TRANSLATORS=googleweb,mymemory.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFile(envFile, cmd.Flags().Changed("env-file")); err != nil {
			return err
		}
		setupLogger(viper.GetString("log_level"))
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

func reportError(w io.Writer, err error) {
	if errors.Is(err, errReported) {
		return
	}
	fmt.Fprintln(w, "Error:", err)
}

func init() {
	initViper()

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&envFile, "env-file", ".env", "Optional dotenv file with BHASHA_* settings")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringSlice("translators", []string{"googleweb"}, "Translation services, raced when more than one (googleweb, google, mymemory, llm)")
	pf.String("speech", "googletts", "Speech service (googletts, elevenlabs, openai)")
	pf.Duration("timeout", 30*time.Second, "Timeout for each external call")
	pf.String("audio-dir", "", "Directory for generated audio (default $TMPDIR/bhasha)")
	pf.String("credentials", "", "Path to Google Cloud credentials (google translator)")
	pf.String("project", "", "Google Cloud project ID")
	pf.String("mymemory-email", "", "MyMemory email (for higher limits)")

	bindFlags(pf, map[string]string{
		"log_level":          "log-level",
		"translators":        "translators",
		"speech":             "speech",
		"timeout":            "timeout",
		"audio_dir":          "audio-dir",
		"google_credentials": "credentials",
		"google_project":     "project",
		"mymemory_email":     "mymemory-email",
	})
}
