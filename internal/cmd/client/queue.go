// Package client contains Cobra CLI commands for SnakeByte.
package client

import (
	"net/url"

	"github.com/spf13/cobra"
)

// NewQueueCommand constructs the `queue` command group and subcommands.
func NewQueueCommand(baseURL BaseURLFunc) *cobra.Command {
	queueCmd := &cobra.Command{Use: "queue", Short: "Queue operations"}

	queueCmd.AddCommand(
		newQueueEnqueueCommand(baseURL),
		newQueueDequeueCommand(baseURL),
		newQueueBucketsCommand(baseURL),
		newQueueStatsCommand(baseURL),
		newQueueDeleteBucketCommand(baseURL),
		newQueueListCommand(baseURL),
		newQueueScriptCommand(baseURL),
	)

	return queueCmd
}

func addQueueFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("namespace", "n", "", "Namespace (server default when empty)")
	cmd.Flags().StringP("queue", "q", "main", "Queue name")
}

func queueFlags(cmd *cobra.Command) (string, string) {
	ns, _ := cmd.Flags().GetString("namespace")
	queue, _ := cmd.Flags().GetString("queue")
	return ns, queue
}

// newQueueEnqueueCommand constructs the `queue enqueue` subcommand.
func newQueueEnqueueCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enqueue <bucket> <payload>",
		Short: "Append a work item to a bucket",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, queue := queueFlags(cmd)
			headers, _ := cmd.Flags().GetStringToString("header")
			resp, err := postJSON(cmd.Context(), baseURL(), "/v1/queues/enqueue", map[string]any{
				"namespace": ns,
				"queue":     queue,
				"bucket":    args[0],
				"payload":   args[1],
				"headers":   headers,
			})
			if err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	addQueueFlags(cmd)
	cmd.Flags().StringToString("header", nil, "Item header key=value (repeatable)")
	return cmd
}

// newQueueDequeueCommand constructs the `queue dequeue` subcommand.
func newQueueDequeueCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dequeue",
		Short: "Remove the next item in fair order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ns, queue := queueFlags(cmd)
			bucket, _ := cmd.Flags().GetString("bucket")
			resp, err := postJSON(cmd.Context(), baseURL(), "/v1/queues/dequeue", map[string]any{
				"namespace": ns,
				"queue":     queue,
				"bucket":    bucket,
			})
			if err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	addQueueFlags(cmd)
	cmd.Flags().StringP("bucket", "b", "", "Dequeue from this bucket only")
	return cmd
}

// newQueueBucketsCommand constructs the `queue buckets` subcommand.
func newQueueBucketsCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buckets",
		Short: "List buckets in service order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ns, queue := queueFlags(cmd)
			filter, _ := cmd.Flags().GetString("filter")
			q := url.Values{}
			q.Set("namespace", ns)
			q.Set("queue", queue)
			if filter != "" {
				q.Set("filter", filter)
			}
			resp, err := getJSON(cmd.Context(), baseURL(), "/v1/queues/buckets", q)
			if err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	addQueueFlags(cmd)
	cmd.Flags().String("filter", "", "CEL filter over bucket, depth, position, now_ms")
	return cmd
}

// newQueueStatsCommand constructs the `queue stats` subcommand.
func newQueueStatsCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show queue item/bucket counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ns, queue := queueFlags(cmd)
			q := url.Values{}
			q.Set("namespace", ns)
			q.Set("queue", queue)
			resp, err := getJSON(cmd.Context(), baseURL(), "/v1/queues/stats", q)
			if err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	addQueueFlags(cmd)
	return cmd
}

// newQueueDeleteBucketCommand constructs the `queue delete-bucket` subcommand.
func newQueueDeleteBucketCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete-bucket <bucket>",
		Short: "Delete a bucket and everything queued under it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, queue := queueFlags(cmd)
			_, err := postJSON(cmd.Context(), baseURL(), "/v1/queues/bucket/delete", map[string]any{
				"namespace": ns,
				"queue":     queue,
				"bucket":    args[0],
			})
			return err
		},
	}
	addQueueFlags(cmd)
	return cmd
}

// newQueueListCommand constructs the `queue list` subcommand.
func newQueueListCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queues in a namespace",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ns, _ := cmd.Flags().GetString("namespace")
			q := url.Values{}
			q.Set("namespace", ns)
			resp, err := getJSON(cmd.Context(), baseURL(), "/v1/queues/list", q)
			if err != nil {
				return err
			}
			printJSON(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	cmd.Flags().StringP("namespace", "n", "", "Namespace (server default when empty)")
	return cmd
}
