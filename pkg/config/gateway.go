package config

// GatewayConfig configures the read-only HTTP gateway over recorded passes.
type GatewayConfig struct {
	Port int `mapstructure:"port" flag:"port" toml:"port" validate:"gte=0,lte=65535"`
}

func (c GatewayConfig) Validate() error {
	return validateConfig(c)
}
