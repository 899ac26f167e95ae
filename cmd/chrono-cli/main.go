// Chrono CLI — инструмент командной строки для управления
// зарегистрированными событиями.
//
// Использование:
//
//	chrono [--backend NAME] [--dsn DSN] [--json] <command> [flags]
//
// Команды:
//
//	register  Регистрация события
//	list      Список зарегистрированных событий
//	delete    Удаление события
//	logs      Захваченный вывод выполнения
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Chrono/internal/cli"
	"github.com/shaiso/Chrono/internal/config"
	"github.com/shaiso/Chrono/internal/store"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var backend string
	var dsn string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "chrono",
		Short:         "Chrono CLI — recurring event trigger tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Store backend: sqlite or postgres (default from CHRONO_BACKEND)")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "Store DSN: sqlite path or postgres URL (default from CHRONO_DSN)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	storeFn := func() (store.Store, error) {
		cfg := config.FromEnv()
		if backend != "" {
			cfg.Backend = backend
		}
		if dsn != "" {
			cfg.DSN = dsn
		}
		return store.Open(context.Background(), cfg.StoreConfig())
	}
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewRegisterCmd(storeFn, outputFn),
		cli.NewListCmd(storeFn, outputFn),
		cli.NewDeleteCmd(storeFn, outputFn),
		cli.NewLogsCmd(storeFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
