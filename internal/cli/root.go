// Package cli команды shopfloor: бот, миграции, просмотр остатков.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Spok95/shopfloor/internal/config"
)

const defaultConfigPath = "config/example.yaml"

// App общие зависимости команд. Конфиг читается лениво: --help работает без файла.
type App struct {
	ConfigPath string
	Out        io.Writer
	loadConfig func(path string) (config.Config, error)
}

func (a *App) Config() (config.Config, error) {
	return a.loadConfig(a.ConfigPath)
}

func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "shopfloor",
		Short:         "Operator console for material and product usage",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&app.ConfigPath, "config", "c", defaultConfigPath, "path to YAML config")
	root.SetOut(app.Out)

	root.AddCommand(
		newRunCommand(app),
		newMigrateCommand(app),
		newStockCommand(app),
	)
	return root
}

// Execute запускает CLI и возвращает код выхода.
func Execute() int {
	app := &App{Out: os.Stdout, loadConfig: config.Load}
	if err := NewRootCommand(app).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
