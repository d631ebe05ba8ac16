package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperengineering/snsreport/internal/ingest"
	"github.com/hyperengineering/snsreport/internal/store"
	"github.com/hyperengineering/snsreport/internal/types"
	"github.com/spf13/cobra"
)

var (
	ingestMap         map[string]string
	ingestMappingName string
	ingestSaveAs      string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <client-id> <file.csv>",
	Short: "Ingest a CSV export for a client",
	Long: `Ingest a CSV export for a client without running the server.

The column mapping comes from --map (repeatable, key=Header), or from the
saved mapping named by --mapping-name, or else from the client's default
saved mapping.`,
	Example: "  snsreport ingest 01J... export.csv --map date=Date --map views=Views --map reach=Reach",
	Args:    cobra.ExactArgs(2),
	RunE:    runIngest,
}

func init() {
	ingestCmd.Flags().StringToStringVar(&ingestMap, "map", nil,
		"Column mapping entry key=Header (repeatable)")
	ingestCmd.Flags().StringVar(&ingestMappingName, "mapping-name", "",
		"Use the saved mapping with this name")
	ingestCmd.Flags().StringVar(&ingestSaveAs, "save-mapping", "",
		"Save the --map mapping under this name as the client's default")
}

func runIngest(cmd *cobra.Command, args []string) error {
	clientID, path := args[0], args[1]
	ctx := commandContext(cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	env, err := openOffline(cmd)
	if err != nil {
		return err
	}
	defer env.store.Close()

	mapping, err := resolveMapping(ctx, env.store, clientID)
	if err != nil {
		return err
	}

	pipeline := ingest.NewPipeline(env.store, env.cfg.Ingest.SampleRows)
	result, err := pipeline.Ingest(ctx, ingest.Request{
		ClientID: clientID,
		Filename: filepath.Base(path),
		CSV:      string(data),
		Mapping:  mapping,
	})
	if err != nil {
		return err
	}

	if len(ingestMap) > 0 && ingestSaveAs != "" {
		if _, err := env.store.SaveMapping(ctx, types.NewSavedMapping{
			ClientID:  clientID,
			Name:      ingestSaveAs,
			Mapping:   mapping,
			IsDefault: true,
		}); err != nil {
			return fmt.Errorf("save mapping: %w", err)
		}
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), result)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Upload %s: %d of %d rows processed (%d errors, %d warnings)\n",
		result.UploadID, result.ProcessedRows, result.TotalRows, result.Errors, result.Warnings)
	for _, l := range result.Logs {
		if l.Type == types.LogInfo {
			continue
		}
		fmt.Fprintf(out, "  %s: %s\n", l.Type, l.Message)
	}
	return nil
}

// resolveMapping picks the mapping for an offline ingest: explicit --map
// entries, then a saved mapping by name, then the client's default.
func resolveMapping(ctx context.Context, s store.Store, clientID string) (types.ColumnMapping, error) {
	if len(ingestMap) > 0 {
		m := make(types.ColumnMapping, len(ingestMap))
		for k, v := range ingestMap {
			m[types.MetricKey(k)] = v
		}
		return m, nil
	}

	saved, err := s.ListMappings(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	for _, m := range saved {
		if ingestMappingName != "" && m.Name == ingestMappingName {
			return m.Mapping, nil
		}
		if ingestMappingName == "" && m.IsDefault {
			return m.Mapping, nil
		}
	}

	if ingestMappingName != "" {
		return nil, fmt.Errorf("no saved mapping named %q", ingestMappingName)
	}
	return nil, errors.New("no column mapping: pass --map or save a default mapping")
}
