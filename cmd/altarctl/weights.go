package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/exilekit/altar-agent/altar"
	"github.com/exilekit/altar-agent/weightfile"
)

var weightsCmd = &cobra.Command{
	Use:   "weights <subcommand>",
	Short: "Inspect and edit the weight file",
}

var weightsSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Add catalog defaults for every key missing from the weight file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSetup()
		if err != nil {
			return err
		}
		store := altar.NewWeightStore(s.locker)
		if err := weightfile.Sync(s.cfg.Paths.WeightsFile, store, s.catalog); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d weights\n", s.cfg.Paths.WeightsFile, len(store.Snapshot()))
		return nil
	},
}

var weightsSetCmd = &cobra.Command{
	Use:   "set <key> <weight>",
	Short: "Set one weight, key is Target|id or a bare id",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSetup()
		if err != nil {
			return err
		}
		weight, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("parse weight: %w", err)
		}
		if err := setWeight(s, args[0], weight); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %d\n", args[0], weight)
		return nil
	},
}

var weightsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the effective weights",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSetup()
		if err != nil {
			return err
		}
		entries := s.store.Snapshot()
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(cmd.OutOrStdout(), "%-40s %3d\n", k, entries[k])
		}
		return nil
	},
}

func init() {
	weightsCmd.AddCommand(weightsSeedCmd, weightsSetCmd, weightsListCmd)
}

// setWeight writes one entry on top of the seeded file. A running agent picks
// it up through its watcher.
func setWeight(s *setup, key string, weight int) error {
	if _, ok := s.catalog.Lookup(key); !ok {
		return fmt.Errorf("set weight: unknown mod %q", key)
	}
	if err := s.store.Set(key, weight); err != nil {
		return fmt.Errorf("set weight: %w", err)
	}
	return weightfile.Save(s.cfg.Paths.WeightsFile, s.store.Snapshot())
}
