package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"adsbtrack/internal/adsb"
	"adsbtrack/internal/registry"
)

// newRegistryCmd builds the commands maintaining an SQLite aircraft registry
func newRegistryCmd() *cobra.Command {
	var dbPath string

	registryCmd := &cobra.Command{
		Use:   "registry",
		Short: "Maintain the SQLite aircraft registry",
	}
	registryCmd.PersistentFlags().StringVar(&dbPath, "registry", "", "SQLite registry database")
	registryCmd.MarkPersistentFlagRequired("registry")

	importCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import registry CSV records (ICAO,registration,type,model,description,wtc), - for stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open registry CSV: %w", err)
				}
				defer f.Close()
				r = f
			}

			db, err := registry.OpenSQLiteDatabase(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := db.ImportCSV(r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d aircraft into %s\n", n, dbPath)
			return nil
		},
	}

	addCmd := &cobra.Command{
		Use:   "add ICAO REGISTRATION TYPE MODEL DESCRIPTION WTC",
		Short: "Add or replace one aircraft",
		Args:  cobra.ExactArgs(6),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := adsb.ParseIcaoAddress(args[0])
			if err != nil {
				return err
			}

			db, err := registry.OpenSQLiteDatabase(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			info := registry.AircraftInfo{
				Registration:   args[1],
				TypeDesignator: args[2],
				Model:          args[3],
				Description:    args[4],
				WakeTurbulence: registry.ParseWakeTurbulenceCategory(args[5]),
			}
			if err := db.Insert(addr, info); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", addr, info.Registration)
			return nil
		},
	}

	registryCmd.AddCommand(importCmd, addCmd)
	return registryCmd
}
