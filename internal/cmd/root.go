// Package cmd wires baton's command-line interface.
package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/batonhq/baton/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "baton",
	Short: "Conduct multi-movement AI-agent pieces",
	Long: `Baton conducts "pieces": multi-step agent workflows whose movements
invoke an external agent, evaluate the result against transition rules,
and advance until completion or abort. Movements may fan out into
parallel subtasks through a team-leader decomposition, and review-style
movements feed a loop health monitor that classifies the run's
trajectory.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/baton/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Defaults first so every key resolves even without a config file.
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/baton")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("BATON")
	// BATON_HEALTH_LOOP_THRESHOLD overrides health.loop_threshold.
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Missing config file is fine; defaults and env carry the run.
	_ = viper.ReadInConfig()
}
