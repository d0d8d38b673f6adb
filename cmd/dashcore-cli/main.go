// Command dashcore-cli decodes and inspects Dash transactions, blocks,
// addresses and HD keys. The conformance subcommand answers one JSON
// request read from stdin, for cross-implementation vector checks.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type app struct {
	cfg Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: DefaultConfig(), log: zerolog.Nop()}
	root := &cobra.Command{
		Use:           "dashcore-cli",
		Short:         "Dash consensus codec tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := ValidateConfig(a.cfg); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			a.log = newLogger(cmd.ErrOrStderr(), a.cfg.LogLevel)
			a.log.Debug().
				Str("network", a.cfg.Network).
				Uint64("max_elements", a.cfg.MaxElements).
				Msg("config loaded")
			return nil
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.cfg.Network, "network", a.cfg.Network, "network parameters: dash|testnet|devnet|regtest|bitcoin|bitcoin-testnet")
	flags.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level: debug|info|warn|error")
	flags.Uint64Var(&a.cfg.MaxElements, "max-elements", a.cfg.MaxElements, "maximum inputs, outputs or transactions accepted per sequence")

	root.AddCommand(
		a.conformanceCmd(),
		a.decodeTxCmd(),
		a.decodeBlockCmd(),
		a.addressCmd(),
		a.hdCmd(),
		a.sighashCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
