package conversation

import (
	"fmt"
	"strings"
)

// Character is a simulated participant: a display name, the personality text
// injected into every prompt sent on its behalf, and the model variant that
// answers for it. Characters are immutable once a conversation starts.
type Character struct {
	Name        string `json:"name"`
	Personality string `json:"personality"`
	ModelID     string `json:"model_id"`
}

// Validate checks the fields a character needs before it can speak.
func (c Character) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("character name must not be empty")
	}
	if strings.TrimSpace(c.Personality) == "" {
		return fmt.Errorf("character %q has no personality", c.Name)
	}
	if strings.TrimSpace(c.ModelID) == "" {
		return fmt.Errorf("character %q has no model", c.Name)
	}
	return nil
}
