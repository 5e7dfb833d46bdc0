package sdk

// DefaultNamespace is used when no explicit host namespace is provided.
const DefaultNamespace = "tarmac"

// RuntimeConfig carries configuration shared by components that call into a
// waPC host runtime (host HTTP transport, host logging, host metrics).
type RuntimeConfig struct {
	// Namespace is the function namespace used to scope host interactions.
	Namespace string
}

// WithDefaults returns a copy of the configuration with empty fields set to
// their defaults.
func (c RuntimeConfig) WithDefaults() RuntimeConfig {
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	return c
}
