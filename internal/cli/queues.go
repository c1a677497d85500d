package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

var queueHeaders = []string{"NAME", "EXCHANGE", "TYPE", "ROUTING KEY", "DURABLE"}

func queueRow(q QueueInfo) []string {
	return []string{q.Name, q.Exchange, q.ExchangeType, q.RoutingKey, strconv.FormatBool(q.Durable)}
}

// NewQueuesCmd создаёт группу команд для просмотра очередей.
func NewQueuesCmd(backendFn func() (Backend, error), outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queues",
		Short: "Inspect declared queues",
	}

	cmd.AddCommand(
		newQueuesListCmd(backendFn, outputFn),
		newQueuesShowCmd(backendFn, outputFn),
	)

	return cmd
}

func newQueuesListCmd(backendFn func() (Backend, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List declared queues",
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := backendFn()
			if err != nil {
				return err
			}
			out := outputFn()

			qs, err := backend.Queues(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, len(qs))
			for i, q := range qs {
				rows[i] = queueRow(q)
			}

			out.Print(queueHeaders, rows, qs)
			return nil
		},
	}
}

func newQueuesShowCmd(backendFn func() (Backend, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show queue details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := backendFn()
			if err != nil {
				return err
			}
			out := outputFn()

			q, err := backend.Queue(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out.Print(queueHeaders, [][]string{queueRow(*q)}, q)
			return nil
		},
	}
}
