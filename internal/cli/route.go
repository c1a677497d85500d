package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// callFlags — флаги вызова задачи, общие для route и send.
type callFlags struct {
	args    string
	kwargs  string
	queue   string
	options []string
}

func (f *callFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.args, "args", "", "Positional arguments as JSON array")
	cmd.Flags().StringVar(&f.kwargs, "kwargs", "", "Keyword arguments as JSON object")
	cmd.Flags().StringVarP(&f.queue, "queue", "q", "", "Explicit queue name")
	cmd.Flags().StringArrayVarP(&f.options, "option", "o", nil, "Delivery option key=value (repeatable)")
}

// request собирает RouteRequest из флагов.
func (f *callFlags) request(task string) (RouteRequest, error) {
	req := RouteRequest{Task: task}

	if f.args != "" {
		if err := json.Unmarshal([]byte(f.args), &req.Args); err != nil {
			return req, fmt.Errorf("invalid --args: %w", err)
		}
	}
	if f.kwargs != "" {
		if err := json.Unmarshal([]byte(f.kwargs), &req.Kwargs); err != nil {
			return req, fmt.Errorf("invalid --kwargs: %w", err)
		}
	}

	opts, err := parseOptions(f.options)
	if err != nil {
		return req, err
	}
	if f.queue != "" {
		if opts == nil {
			opts = make(map[string]any)
		}
		opts["queue"] = f.queue
	}
	req.Options = opts

	return req, nil
}

// parseOptions разбирает пары key=value. Значение, которое читается
// как JSON (число, bool, объект), подставляется как есть, иначе — строкой.
func parseOptions(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	opts := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid option %q: expected key=value", pair)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		opts[key] = v
	}
	return opts, nil
}

// parseDestination: объект JSON или имя очереди.
func parseDestination(s string) (any, error) {
	if !strings.HasPrefix(strings.TrimSpace(s), "{") {
		return s, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("invalid destination: %w", err)
	}
	return m, nil
}

var destinationHeaders = []string{"QUEUE", "EXCHANGE", "TYPE", "ROUTING KEY", "OPTIONS"}

func destinationRow(d Destination) []string {
	return []string{d.Queue.Name, d.Exchange, d.ExchangeType, d.RoutingKey, formatOptions(d.Options)}
}

func formatOptions(opts map[string]any) string {
	if len(opts) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, opts[k])
	}
	return strings.Join(parts, ",")
}

// NewRouteCmd создаёт команду route.
func NewRouteCmd(backendFn func() (Backend, error), outputFn func() *Output) *cobra.Command {
	var flags callFlags

	cmd := &cobra.Command{
		Use:   "route TASK",
		Short: "Show where a task call would be routed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := backendFn()
			if err != nil {
				return err
			}
			out := outputFn()

			req, err := flags.request(args[0])
			if err != nil {
				return err
			}

			result, err := backend.Route(cmd.Context(), req)
			if err != nil {
				return err
			}

			headers := append([]string{"TASK"}, destinationHeaders...)
			headers = append(headers, "SOURCE", "RULE")
			row := append([]string{result.Task}, destinationRow(result.Destination)...)
			row = append(row, result.Source, strconv.Itoa(result.Rule))

			out.Print(headers, [][]string{row}, result)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// NewExpandCmd создаёт команду expand.
func NewExpandCmd(backendFn func() (Backend, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "expand DESTINATION",
		Short: "Expand a queue name or JSON options into delivery options",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := backendFn()
			if err != nil {
				return err
			}
			out := outputFn()

			dest, err := parseDestination(args[0])
			if err != nil {
				return err
			}

			result, err := backend.Expand(cmd.Context(), dest)
			if err != nil {
				return err
			}

			out.Print(destinationHeaders, [][]string{destinationRow(*result)}, result)
			return nil
		},
	}
}

// NewSendCmd создаёт команду send.
func NewSendCmd(backendFn func() (Backend, error), outputFn func() *Output) *cobra.Command {
	var flags callFlags

	cmd := &cobra.Command{
		Use:   "send TASK",
		Short: "Route and publish a task call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := backendFn()
			if err != nil {
				return err
			}
			out := outputFn()

			req, err := flags.request(args[0])
			if err != nil {
				return err
			}

			result, err := backend.Send(cmd.Context(), req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Task sent: %s", result.MessageID))
			out.Print(
				append([]string{"MESSAGE ID"}, destinationHeaders...),
				[][]string{append([]string{result.MessageID}, destinationRow(result.Destination)...)},
				result,
			)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
