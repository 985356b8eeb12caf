package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# where finished audio is written, served as /audio/<id>.<ext>
# output_dir: "~/.local/share/advtts/output"
# where engines write native audio before conversion
# temp_dir: "~/.local/share/advtts/temp"
# longest accepted text, in characters
max_text_length: 50000

synthesis:
  # defaults for requests that don't name them
  engine: "espeak-ng"
  language: "en"
  format: "mp3"
  # give up on a request after this long (0 disables)
  timeout: "5m"

fallback:
  # engine used when the requested one fails in a recoverable way ("" disables)
  secondary: "espeak-ng"

engines:
  # how long a cancelled engine may take to exit before it is killed
  kill_grace: "2s"
  piper:
    models_dir: "~/.local/share/piper/models"
  coqui:
    use_cuda: false
  gtts:
    # throttle for the online engine (0 disables)
    requests_per_minute: 50

# maximum concurrent processes per engine; engines not listed are unlimited
admission:
  coqui: 1

cache:
  # reuse renders of identical requests
  enabled: true
  # dir: "~/.cache/advtts/renders"
  memory_mb: 64
  disk_mb: 512
  # zstd level for the disk tier
  compression_level: 3
  ttl: "168h"

cleanup:
  # generated files older than this are removed by advtts reap
  max_age: "1h"
  # sweep interval for advtts reap --watch
  every: "10m"
  # cron expression, takes precedence over every
  # cron: "*/15 * * * *"

log:
  # debug, info, warn or error
  level: "info"
  # write rotated JSON logs here instead of stderr
  # file: "~/.local/state/advtts/advtts.log"
  max_size_mb: 10
  max_backups: 3
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the advtts config file",
	Long:    paragraph(fmt.Sprintf("\n%s the advtts config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("advtts config\nadvtts config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	// the config file is edited as-is, even when it doesn't validate
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("advtts", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
	}
	if configFile == "" {
		configFile = defaultConfigPath
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
