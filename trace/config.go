package trace

// Config 链路追踪配置
type Config struct {
	ServiceName string  `mapstructure:"service_name" yaml:"service_name"`
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`
	Sampler     float64 `mapstructure:"sampler" yaml:"sampler"`
	Batcher     string  `mapstructure:"batcher" yaml:"batcher"`
	Insecure    bool    `mapstructure:"insecure" yaml:"insecure"`
}

// DefaultConfig 返回默认配置
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Endpoint:    "localhost:4317",
		Sampler:     1.0,
		Batcher:     "batch",
		Insecure:    true,
	}
}
