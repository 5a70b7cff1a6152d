package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/truthscope/internal/core/domain"
	"github.com/custodia-labs/truthscope/internal/core/ports/driving"
)

func newCompareCommand(ctx *commandContext) *cobra.Command {
	var (
		topic   string
		fileA   string
		fileB   string
		sourceA string
		sourceB string
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two documents in-process and print the finished job",
		Example: `  truthscope compare --topic "Mars" --a wikipedia.txt --b grokipedia.txt
  cat b.txt | truthscope compare --topic "Mars" --a a.txt --b -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(topic) == "" {
				return errors.New("--topic is required")
			}
			textA, err := readDocument(cmd.InOrStdin(), fileA)
			if err != nil {
				return err
			}
			textB, err := readDocument(cmd.InOrStdin(), fileB)
			if err != nil {
				return err
			}

			app, err := buildApplication(cmd.Context(), cfg, ctx.logger())
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.worker.Start(cmd.Context()); err != nil {
				return fmt.Errorf("failed to start worker: %w", err)
			}
			defer app.worker.Stop()

			jobID, err := app.compare.Submit(cmd.Context(), driving.CompareRequest{
				Topic:   topic,
				SourceA: sourceA,
				SourceB: sourceB,
				TextA:   textA,
				TextB:   textB,
			})
			if err != nil {
				if errors.Is(err, domain.ErrMissingCredential) {
					return fmt.Errorf("%w: configure ai.extraction and ai.embedding (or set OPENAI_API_KEY)", err)
				}
				return err
			}

			job, err := app.compare.Await(cmd.Context(), jobID)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(job); err != nil {
				return err
			}
			if job.Status == domain.JobStatusFailed {
				return fmt.Errorf("comparison failed: %s", job.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Topic both documents describe")
	cmd.Flags().StringVar(&fileA, "a", "", "Path of the reference document (- for stdin)")
	cmd.Flags().StringVar(&fileB, "b", "", "Path of the document under review (- for stdin)")
	cmd.Flags().StringVar(&sourceA, "source-a", "", "Label of document A (default Wikipedia)")
	cmd.Flags().StringVar(&sourceB, "source-b", "", "Label of document B (default Grokipedia)")
	_ = cmd.MarkFlagRequired("a")
	_ = cmd.MarkFlagRequired("b")

	return cmd
}

// readDocument reads a file, or stdin for "-". An empty path is an empty document.
func readDocument(stdin io.Reader, path string) (string, error) {
	switch path {
	case "":
		return "", nil
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
