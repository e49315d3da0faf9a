// Command altarctl evaluates recorded altar scans offline and edits the
// weight file the agent reads.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/exilekit/altar-agent/altar"
	"github.com/exilekit/altar-agent/config"
	"github.com/exilekit/altar-agent/locker"
	"github.com/exilekit/altar-agent/weightfile"
)

var (
	configPath  string
	weightsPath string
	noLock      bool
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "altarctl",
	Short: "Offline tools for the altar agent",
	Long: `altarctl runs the altar decision engine against recorded scans and
manages the weight file.

Examples:
  altarctl evaluate scans.json
  altarctl replay scans.json --interval 50ms
  altarctl weights set "Player|no_regen" 100`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.WarnLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/altar_agent.toml", "Agent config file")
	rootCmd.PersistentFlags().StringVarP(&weightsPath, "weights", "w", "", "Weight file (overrides the config)")
	rootCmd.PersistentFlags().BoolVar(&noLock, "no-lock", false, "Use the no-op locker")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	rootCmd.AddCommand(evaluateCmd, replayCmd, weightsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup holds what every subcommand needs.
type setup struct {
	cfg     *config.Config
	catalog *altar.Catalog
	store   *altar.WeightStore
	locker  locker.Locker
}

func loadSetup() (*setup, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if weightsPath != "" {
		cfg.Paths.WeightsFile = weightsPath
	}
	if noLock {
		cfg.Lock.Enabled = false
	}

	catalog, err := altar.DefaultCatalog()
	if cfg.Paths.CatalogFile != "" {
		catalog, err = altar.LoadCatalog(cfg.Paths.CatalogFile)
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	l := locker.New(cfg.Lock.Enabled)
	store := altar.NewWeightStore(l)
	entries, err := weightfile.Load(cfg.Paths.WeightsFile)
	if err != nil {
		return nil, fmt.Errorf("load weights: %w", err)
	}
	store.Replace(entries)
	store.Seed(catalog)
	return &setup{cfg: cfg, catalog: catalog, store: store, locker: l}, nil
}

func (s *setup) engine() *altar.Engine {
	return altar.NewEngine(s.catalog, s.store,
		altar.WithLocker(s.locker),
		altar.WithEvaluator(altar.NewEvaluator(s.cfg.Decision.DangerThreshold)),
	)
}
