package relay

import (
	"errors"
	"fmt"
)

// DefaultMaxTokens is the completion cap sent with every upstream request.
const DefaultMaxTokens = 1000

// Variant is one deployment of the relay: the upstream it targets and the
// instruction it conditions the model with.
type Variant struct {
	Name          string `yaml:"name"`
	Banner        string `yaml:"banner"`
	Port          string `yaml:"port"`
	Endpoint      string `yaml:"endpoint"`
	Model         string `yaml:"model"`
	SystemPrompt  string `yaml:"system_prompt"`
	CredentialEnv string `yaml:"credential_env"`
	MaxTokens     int    `yaml:"max_tokens"`
}

// Validate checks the fields the relay cannot work without.
func (v Variant) Validate() error {
	var errs []error
	if v.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if v.Endpoint == "" {
		errs = append(errs, errors.New("endpoint is required"))
	}
	if v.Model == "" {
		errs = append(errs, errors.New("model is required"))
	}
	if v.SystemPrompt == "" {
		errs = append(errs, errors.New("system_prompt is required"))
	}
	if v.CredentialEnv == "" {
		errs = append(errs, errors.New("credential_env is required"))
	}
	if v.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("max_tokens must not be negative, got %d", v.MaxTokens))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("variant %q: %w", v.Name, err)
	}
	return nil
}

func (v Variant) maxTokens() int {
	if v.MaxTokens == 0 {
		return DefaultMaxTokens
	}
	return v.MaxTokens
}
