package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Chrono/internal/domain"
	"github.com/shaiso/Chrono/internal/registry"
	"github.com/shaiso/Chrono/internal/store"
)

// NewRegisterCmd создаёт команду регистрации события.
func NewRegisterCmd(storeFn func() (store.Store, error), outputFn func() *Output) *cobra.Command {
	var query string
	var module string
	var fn string
	var argsJSON string
	var kwargsJSON string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a recurring or one-shot event",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := outputFn()

			var args []any
			if argsJSON != "" {
				if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
					return fmt.Errorf("parse --args: %w", err)
				}
			}
			var kwargs map[string]any
			if kwargsJSON != "" {
				if err := json.Unmarshal([]byte(kwargsJSON), &kwargs); err != nil {
					return fmt.Errorf("parse --kwargs: %w", err)
				}
			}

			st, err := storeFn()
			if err != nil {
				return err
			}
			defer st.Close()

			reg := registry.New(registry.Config{Store: st})
			if err := reg.Register(cmd.Context(), query, module, fn, args, kwargs); err != nil {
				return err
			}

			out.Success("registered " + domain.EventID(module, fn))
			return nil
		},
	}

	cmd.Flags().StringVar(&query, "query", "", `Recurrence expression, e.g. "every 1 day @ 9am"`)
	cmd.Flags().StringVar(&module, "module", "", "Module the event belongs to")
	cmd.Flags().StringVar(&fn, "func", "", "Function to invoke")
	cmd.Flags().StringVar(&argsJSON, "args", "", "Positional arguments as a JSON array")
	cmd.Flags().StringVar(&kwargsJSON, "kwargs", "", "Keyword arguments as a JSON object")
	cmd.MarkFlagRequired("query")
	cmd.MarkFlagRequired("module")
	cmd.MarkFlagRequired("func")

	return cmd
}

// NewListCmd создаёт команду списка зарегистрированных событий.
func NewListCmd(storeFn func() (store.Store, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := outputFn()

			st, err := storeFn()
			if err != nil {
				return err
			}
			defer st.Close()

			rows, err := st.ReadAll(cmd.Context(), domain.EventsTable)
			if err != nil && !errors.Is(err, store.ErrNoTable) {
				return err
			}

			events := make([]*domain.Event, 0, len(rows))
			for _, row := range rows {
				event, err := domain.EventFromRow(row)
				if err != nil {
					out.Error(fmt.Sprintf("skipping row %v: %v", row["id"], err))
					continue
				}
				events = append(events, event)
			}
			sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })

			headers := []string{"ID", "QUERY", "LAST", "MODULE", "FUNC"}
			table := make([][]string, len(events))
			for i, e := range events {
				table[i] = []string{
					e.ID, e.Query, e.Last.UTC().Format(time.RFC3339), e.Module, e.Func,
				}
			}

			out.Print(headers, table, events)
			return nil
		},
	}
}

// NewDeleteCmd создаёт команду удаления события.
func NewDeleteCmd(storeFn func() (store.Store, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a registered event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			st, err := storeFn()
			if err != nil {
				return err
			}
			defer st.Close()

			reg := registry.New(registry.Config{Store: st})
			if err := reg.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}

			out.Success("deleted " + args[0])
			return nil
		},
	}
}

// NewLogsCmd создаёт команду просмотра захваченного вывода выполнения.
func NewLogsCmd(storeFn func() (store.Store, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "logs EXECUTION_ID",
		Short: "Show captured output of an execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			st, err := storeFn()
			if err != nil {
				return err
			}
			defer st.Close()

			rows, err := st.ReadAll(cmd.Context(), domain.LogsTable)
			if err != nil && !errors.Is(err, store.ErrNoTable) {
				return err
			}

			type logEntry struct {
				Index int64  `json:"index"`
				Line  string `json:"line"`
				Time  string `json:"utc_time"`
			}
			var entries []logEntry
			for _, row := range rows {
				if fmt.Sprint(row["event_id"]) != args[0] {
					continue
				}
				entries = append(entries, logEntry{
					Index: asInt(row["index"]),
					Line:  fmt.Sprint(row["line"]),
					Time:  fmt.Sprint(row["utc_time"]),
				})
			}
			sort.Slice(entries, func(i, j int) bool { return entries[i].Index < entries[j].Index })

			if len(entries) == 0 {
				out.Error("no logs for execution " + args[0])
				return nil
			}

			lines := make([]string, len(entries))
			for i, entry := range entries {
				lines[i] = entry.Line
			}

			if out.jsonMode {
				out.JSON(entries)
				return nil
			}
			out.Lines(lines)
			return nil
		},
	}
}

// asInt приводит значение колонки index к int64 независимо от того,
// каким типом его вернул драйвер.
func asInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		parsed, _ := strconv.ParseInt(n, 10, 64)
		return parsed
	default:
		return 0
	}
}
