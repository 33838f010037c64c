package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/grokparty/grokparty/pkg/conversation"
)

var schemaOutput string

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of exported conversation files",
		Long: `Emits the JSON schema describing the documents produced by the export
control ('e' during a conversation, or --output in headless mode), for use
by tools that consume exports.`,
		RunE: runSchema,
	}
	cmd.Flags().StringVarP(&schemaOutput, "output", "o", "", "Write the schema to a file instead of stdout")
	return cmd
}

func runSchema(cmd *cobra.Command, args []string) error {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
	}
	schema := r.Reflect(&conversation.Document{})
	schema.Title = "GrokParty Conversation Export"
	schema.Description = "A conversation transcript exported by grokparty."

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling schema: %w", err)
	}

	if schemaOutput == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(schemaOutput, data, 0644); err != nil {
		return fmt.Errorf("writing schema file: %w", err)
	}
	fmt.Printf("Schema written to %s\n", schemaOutput)
	return nil
}
