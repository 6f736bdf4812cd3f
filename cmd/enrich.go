package main

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/vc-enrich/internal/model"
)

var (
	enrichWebsite string
	enrichName    string
	enrichThesis  string
	enrichOutput  string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich a single company and print the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Service.Enrich(cmd.Context(), model.EnrichmentRequest{
			Website:     enrichWebsite,
			CompanyName: enrichName,
			Thesis:      enrichThesis,
		})
		if err != nil {
			return eris.Wrapf(err, "enrich %s", enrichName)
		}

		return writeResult(cmd.OutOrStdout(), result, enrichOutput)
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichWebsite, "website", "", "company website domain or URL")
	enrichCmd.Flags().StringVar(&enrichName, "name", "", "company name")
	enrichCmd.Flags().StringVar(&enrichThesis, "thesis", "", "investment thesis to score against")
	enrichCmd.Flags().StringVarP(&enrichOutput, "output", "o", "json", "output format (json or yaml)")
	_ = enrichCmd.MarkFlagRequired("website")
	_ = enrichCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(enrichCmd)
}

func writeResult(w io.Writer, result *model.EnrichmentResult, format string) error {
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return eris.Wrap(enc.Close(), "encode yaml")
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(result), "encode json")
	default:
		return eris.Errorf("unknown output format %q", format)
	}
}
