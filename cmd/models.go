package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/grokparty/grokparty/pkg/grok"
)

var (
	modelsJSON   bool
	modelsRemote bool
	modelsAPIKey string
)

func newModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List available Grok models",
		Long: `Lists the Grok model variants characters and the speaker-selection
step can use. With --remote, the list is fetched from the API for your
account instead of the built-in catalog.`,
		RunE: runModelsList,
	}
	cmd.Flags().BoolVar(&modelsJSON, "json", false, "Output the model list as JSON")
	cmd.Flags().BoolVar(&modelsRemote, "remote", false, "Fetch the model list from the API")
	cmd.Flags().StringVar(&modelsAPIKey, "api-key", "", "Grok API key (overrides GROK_API_KEY)")
	return cmd
}

func runModelsList(cmd *cobra.Command, args []string) error {
	models := grok.Models()

	if modelsRemote {
		apiKey := resolveAPIKey(modelsAPIKey)
		client, err := grok.NewClient(apiKey)
		if err != nil {
			return err
		}
		ids, err := client.ListModels(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetching model list: %w", err)
		}
		models = mergeRemoteModels(models, ids)
	}

	if modelsJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(struct {
			Models []grok.ModelInfo `json:"models"`
		}{Models: models})
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "MODEL ID\tNAME\tDESCRIPTION")
	fmt.Fprintln(w, "--------\t----\t-----------")
	for _, m := range models {
		fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, m.Name, m.Description)
	}
	return w.Flush()
}

// mergeRemoteModels keeps catalog metadata where available and lists the
// rest of the account's models with bare IDs.
func mergeRemoteModels(catalog []grok.ModelInfo, ids []string) []grok.ModelInfo {
	byID := make(map[string]grok.ModelInfo, len(catalog))
	for _, m := range catalog {
		byID[m.ID] = m
	}
	out := make([]grok.ModelInfo, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			out = append(out, m)
		} else {
			out = append(out, grok.ModelInfo{ID: id, Name: id})
		}
	}
	return out
}
