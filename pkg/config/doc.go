// Package config loads, validates and holds AgentGuard configuration.
//
// Configuration is read from a YAML file decoded on top of the defaults in
// defaults.go, then environment overrides are applied and the result is
// validated as a whole:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("agentguard.yaml")
//
// # Environment Variable Overrides
//
// Variables follow AGENTGUARD_SECTION_FIELD, for example
// AGENTGUARD_STORAGE_BACKEND or AGENTGUARD_TELEMETRY_LOGGING_LEVEL.
// Upstream provider keys are read from OPENAI_API_KEY, ANTHROPIC_API_KEY
// and GROQ_API_KEY. Environment values always win over the file.
//
// # Singleton
//
// Initialize loads the configuration once per process and returns it;
// GetConfig and Path expose it afterwards. ReloadConfig and Watcher replace
// it atomically, and a failed reload keeps the previous configuration.
package config
