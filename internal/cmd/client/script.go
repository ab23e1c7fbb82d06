package client

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ssokolow/snakebyte/pkg/shellwords"
)

// scriptLine is one parsed enqueue instruction.
type scriptLine struct {
	Bucket  string
	Payload string
}

// parseScript tokenizes each non-blank line with the lexer. The first token
// is the bucket, the remainder is the payload.
func parseScript(lines []string, lexer shellwords.Lexer) ([]scriptLine, error) {
	var out []scriptLine
	for i, line := range lines {
		tokens, err := lexer.Split(line, nil)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		if len(tokens) == 0 {
			continue
		}
		if len(tokens) < 2 {
			return nil, fmt.Errorf("line %d: expected <bucket> <payload>", i+1)
		}
		out = append(out, scriptLine{
			Bucket:  tokens[0],
			Payload: strings.Join(tokens[1:], " "),
		})
	}
	return out, nil
}

// newQueueScriptCommand constructs the `queue script` subcommand.
func newQueueScriptCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "script",
		Short: "Enqueue a batch of items from a script file",
		Long: "Reads a script file with one '<bucket> <payload>' instruction per line,\n" +
			"tokenized by the selected lexer, and enqueues each item.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ns, queue := queueFlags(cmd)
			file, _ := cmd.Flags().GetString("file")
			lexerName, _ := cmd.Flags().GetString("lexer")

			lexer, err := shellwords.ByName(lexerName)
			if err != nil {
				return err
			}

			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			var lines []string
			scanner := bufio.NewScanner(f)
			for scanner.Scan() {
				lines = append(lines, scanner.Text())
			}
			if err := scanner.Err(); err != nil {
				return err
			}

			parsed, err := parseScript(lines, lexer)
			if err != nil {
				return err
			}

			for _, l := range parsed {
				if _, err := postJSON(cmd.Context(), baseURL(), "/v1/queues/enqueue", map[string]any{
					"namespace": ns,
					"queue":     queue,
					"bucket":    l.Bucket,
					"payload":   l.Payload,
				}); err != nil {
					return fmt.Errorf("enqueue %s: %w", l.Bucket, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %d items\n", len(parsed))
			return nil
		},
	}
	addQueueFlags(cmd)
	cmd.Flags().StringP("file", "f", "", "Script file path")
	cmd.Flags().String("lexer", "posix", "Lexer: posix|mirc")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
