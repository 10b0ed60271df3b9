package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/zatekoja/therapistdirectory/internal/application/services"
	"github.com/zatekoja/therapistdirectory/internal/bootstrap"
	"github.com/zatekoja/therapistdirectory/internal/domain/entities"
	"github.com/zatekoja/therapistdirectory/internal/domain/repositories"
	"github.com/zatekoja/therapistdirectory/internal/infrastructure/observability"
	"github.com/zatekoja/therapistdirectory/pkg/config"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "importer",
		Short:         "Bulk data tools for the therapist directory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				return os.Setenv("CONFIG_FILE", cfgFile)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (overrides CONFIG_FILE)")
	root.AddCommand(newTherapistsCmd())
	return root
}

func newTherapistsCmd() *cobra.Command {
	var (
		file    string
		publish bool
	)

	cmd := &cobra.Command{
		Use:   "therapists",
		Short: "Import therapists from a JSON file",
		Long: `Reads a JSON array of therapist records and creates one profile per record.
Records without a name are skipped. With --publish every imported profile gets
a unique slug and becomes visible in search.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readRecords(file)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			observability.InitLogger("therapist-importer", cfg.Env)
			if cfg.Store.Driver == "memory" {
				log.Warn().Msg("STORE_DRIVER=memory: imported therapists are discarded when the importer exits")
			}

			store, err := bootstrap.OpenStore(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer store.Close()

			var searchRepo repositories.TherapistSearchRepository
			if _, adapter := bootstrap.OpenSearchIndex(cmd.Context(), cfg); adapter != nil {
				searchRepo = adapter
			}

			summary, err := services.NewTherapistService(store.Repository, searchRepo).Import(cmd.Context(), records, publish)
			if summary != nil {
				printSummary(cmd, summary)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "path to a JSON array of therapist records")
	cmd.Flags().BoolVar(&publish, "publish", false, "publish imported profiles")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// readRecords accepts a JSON array or an object with a "therapists" array
func readRecords(path string) ([]entities.ImportRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var wrapped struct {
			Therapists []entities.ImportRecord `json:"therapists"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("failed to parse import file %s: %w", path, err)
		}
		return wrapped.Therapists, nil
	}

	var records []entities.ImportRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse import file %s: %w", path, err)
	}
	return records, nil
}

func printSummary(cmd *cobra.Command, summary *entities.ImportSummary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "created: %d\nskipped: %d\n", summary.Created, summary.Skipped)
	for _, e := range summary.Errors {
		fmt.Fprintf(out, "  %s\n", e)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
