package config

// ServiceStatus is the single authoritative health state of a service as
// derived by the health monitor. It is a closed set; presentation layers own
// the mapping to symbols and colors.
type ServiceStatus string

const (
	StatusNotInstalled ServiceStatus = "not_installed"
	StatusStopped      ServiceStatus = "stopped"
	StatusStarting     ServiceStatus = "starting"
	StatusRunning      ServiceStatus = "running"
	StatusUnhealthy    ServiceStatus = "unhealthy"
	StatusError        ServiceStatus = "error"
)

// Service categories. Unknown values are preserved as written in the
// descriptor; only the default is defined here.
const (
	CategoryCore         = "core"
	CategoryOptional     = "optional"
	CategoryExperimental = "experimental"
)

// VendorConfig records where a vendored service comes from. When the vendor
// block is present in a descriptor, both fields are required.
type VendorConfig struct {
	URL string `yaml:"url" json:"url"`
	Ref string `yaml:"ref" json:"ref"` // tag, branch, or commit
}

// PortConfig declares one port a service exposes. A non-empty HealthEndpoint
// marks the port as HTTP-probeable.
type PortConfig struct {
	Name           string `yaml:"name" json:"name"`
	Port           int    `yaml:"port" json:"port"`
	HealthEndpoint string `yaml:"health_endpoint,omitempty" json:"health_endpoint,omitempty"`
}

// EnvVarConfig declares one environment variable a service reads from its
// .env file. Consumed by the env editor surfaces, never by the core.
type EnvVarConfig struct {
	Name        string `yaml:"name" json:"name"`
	Required    bool   `yaml:"required,omitempty" json:"required,omitempty"`
	Secret      bool   `yaml:"secret,omitempty" json:"secret,omitempty"`
	Default     string `yaml:"default,omitempty" json:"default,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// LifecycleCommands holds the optional per-operation override commands. An
// empty field means the generic docker compose fallback applies.
type LifecycleCommands struct {
	Start   string `yaml:"start,omitempty" json:"start,omitempty"`
	Stop    string `yaml:"stop,omitempty" json:"stop,omitempty"`
	Restart string `yaml:"restart,omitempty" json:"restart,omitempty"`
	Install string `yaml:"install,omitempty" json:"install,omitempty"`
	Logs    string `yaml:"logs,omitempty" json:"logs,omitempty"`
	Status  string `yaml:"status,omitempty" json:"status,omitempty"`
}

// ServiceConfig is the parsed, immutable form of one service descriptor.
// ID is the service directory name and the natural key within a registry;
// Path is the service directory the descriptor was loaded from.
type ServiceConfig struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Path        string `json:"path"`

	Vendor  *VendorConfig  `json:"vendor,omitempty"`
	Ports   []PortConfig   `json:"ports,omitempty"`
	EnvVars []EnvVarConfig `json:"env_vars,omitempty"`

	// Declared dependencies. Recorded for display only; startup ordering is
	// not enforced.
	SystemDependencies  []string `json:"system_dependencies,omitempty"`
	ServiceDependencies []string `json:"service_dependencies,omitempty"`

	Notes     map[string]string `json:"notes,omitempty"`
	Lifecycle LifecycleCommands `json:"lifecycle,omitempty"`
}

// PrimaryPort returns the port the health monitor probes: the first port
// declaring a health endpoint, else the first declared port, else nil.
func (c ServiceConfig) PrimaryPort() *PortConfig {
	for i := range c.Ports {
		if c.Ports[i].HealthEndpoint != "" {
			return &c.Ports[i]
		}
	}
	if len(c.Ports) > 0 {
		return &c.Ports[0]
	}
	return nil
}

// RequiredEnvVars returns the subset of EnvVars marked required, in
// declaration order.
func (c ServiceConfig) RequiredEnvVars() []EnvVarConfig {
	var out []EnvVarConfig
	for _, v := range c.EnvVars {
		if v.Required {
			out = append(out, v)
		}
	}
	return out
}
