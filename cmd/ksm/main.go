package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/ksm/pkg/client"
	"github.com/cuemby/ksm/pkg/log"
	"github.com/cuemby/ksm/pkg/storage"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	flagProfile  string
	flagConfig   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ksm",
	Short: "Keeper Secrets Manager client",
	Long: `ksm fetches, creates and rotates secrets stored in Keeper
Secrets Manager from the command line.

A configuration is bound once with a one-time token (ksm init) and
reused afterwards; multiple configurations are kept apart with
--profile.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Init(log.Config{Level: log.Level(flagLogLevel), JSONOutput: true})
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"ksm version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().StringVar(&flagProfile, "profile", "default", "configuration profile to use")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a client config file (overrides the profile)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(secretCmd)
	rootCmd.AddCommand(folderCmd)
}

// configPath resolves the config file for this invocation: the --config
// flag wins, then the selected profile, then the default file.
func configPath() (string, error) {
	if flagConfig != "" {
		return flagConfig, nil
	}
	profiles, err := loadProfiles()
	if err != nil {
		return "", err
	}
	if p, ok := profiles.Profiles[flagProfile]; ok && p.Config != "" {
		return p.Config, nil
	}
	if flagProfile != "default" {
		return "", fmt.Errorf("profile %q does not exist; run ksm init first", flagProfile)
	}
	return storage.DefaultConfigFile, nil
}

// newClient opens the selected configuration
func newClient() (*client.SecretsManager, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	store, err := storage.NewFileStore(path)
	if err != nil {
		return nil, err
	}
	return client.NewSecretsManager(&client.ClientOptions{Config: store})
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bind a one-time token to a new configuration",
	Long: `Initialize a configuration from a one-time token and register it
under the selected profile.

Tokens of the form REGION:SECRET resolve the server from the region
alias; a bare token needs --hostname.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")
		hostname, _ := cmd.Flags().GetString("hostname")

		path := flagConfig
		if path == "" {
			path = storage.DefaultConfigFile
		}
		store, err := storage.NewFileStore(path)
		if err != nil {
			return err
		}
		if _, err := client.NewSecretsManager(&client.ClientOptions{
			Token:    token,
			Hostname: hostname,
			Config:   store,
		}); err != nil {
			return err
		}
		if err := registerProfile(flagProfile, path); err != nil {
			return err
		}
		fmt.Printf("Initialized profile %q with config %s\n", flagProfile, path)
		return nil
	},
}

func init() {
	initCmd.Flags().String("token", "", "one-time token (or set KSM_TOKEN)")
	initCmd.Flags().String("hostname", "", "server hostname for bare tokens")
}
