package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/grokparty/grokparty/cmd"
	"github.com/grokparty/grokparty/pkg/conversation"
)

func main() {
	configReflector := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}

	configSchema := configReflector.Reflect(&cmd.PartyConfig{})
	configSchema.Title = "GrokParty Configuration"
	configSchema.Description = "Schema for ~/.config/grokparty/config.yaml."

	// Every field falls back to a built-in default.
	configSchema.Required = nil

	data, err := json.MarshalIndent(configSchema, "", "  ")
	if err != nil {
		log.Fatalf("Error marshaling config schema: %v", err)
	}
	if err := os.WriteFile("grokparty.schema.json", data, 0644); err != nil {
		log.Fatalf("Error writing config schema file: %v", err)
	}
	log.Printf("Successfully generated config schema at grokparty.schema.json")

	exportReflector := &jsonschema.Reflector{
		ExpandedStruct: true,
	}

	exportSchema := exportReflector.Reflect(&conversation.Document{})
	exportSchema.Title = "GrokParty Conversation Export"
	exportSchema.Description = "Schema for the JSON transcript written by export."

	exportData, err := json.MarshalIndent(exportSchema, "", "  ")
	if err != nil {
		log.Fatalf("Error marshaling export schema: %v", err)
	}
	if err := os.WriteFile("grokparty-export.schema.json", exportData, 0644); err != nil {
		log.Fatalf("Error writing export schema file: %v", err)
	}
	log.Printf("Successfully generated export schema at grokparty-export.schema.json")
}
