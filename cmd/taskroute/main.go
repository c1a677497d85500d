// taskroute — маршрутизатор задач: выбирает очередь RabbitMQ
// для вызова задачи по правилам из файла конфигурации.
//
// Использование:
//
//	taskroute [--config FILE] [--api-url URL] [--json] <command> [flags]
//
// Команды:
//
//	route   Показать маршрут вызова задачи
//	expand  Развернуть имя очереди или опции доставки
//	send    Отправить задачу в RabbitMQ
//	queues  Просмотр объявленных очередей
//	serve   HTTP API маршрутизатора
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/taskroute/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var configPath string
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "taskroute",
		Short:         "taskroute — task routing for RabbitMQ",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Routing file (default $TASKROUTE_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Use a running taskroute API instead of the local config")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	ctx := context.Background()

	// Локальный app создаётся лениво и закрывается при выходе.
	var local *app
	defer func() {
		if local != nil {
			local.Close()
		}
	}()

	backend := func(broker bool) func() (cli.Backend, error) {
		return func() (cli.Backend, error) {
			if apiURL != "" {
				return cli.NewClient(apiURL), nil
			}
			a, err := newApp(ctx, appOptions{configPath: configPath, broker: broker, brokerRequired: broker})
			if err != nil {
				return nil, err
			}
			local = a
			return cli.NewLocal(a.router, a.producer), nil
		}
	}
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewRouteCmd(backend(false), outputFn),
		cli.NewExpandCmd(backend(false), outputFn),
		cli.NewSendCmd(backend(true), outputFn),
		cli.NewQueuesCmd(backend(false), outputFn),
		newServeCmd(&configPath),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if local != nil {
			local.Close()
			local = nil
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
