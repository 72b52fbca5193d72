package metrics

import "github.com/ceyewan/shardkit/xerrors"

// Config 指标配置
//
//	metrics:
//	  enabled: true
//	  service_name: "order-service"
//	  version: "v1.2.3"
//	  port: 9090
//	  path: "/metrics"
type Config struct {
	// Enabled 为 false 时 New 返回 Discard()，所有操作为空
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// ServiceName 写入 Resource 的 service.name
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`

	// Version 写入 Resource 的 service.version
	Version string `mapstructure:"version" yaml:"version"`

	// Port 大于 0 时启动 Prometheus HTTP 服务
	Port int `mapstructure:"port" yaml:"port"`

	// Path 指标暴露路径，必须以 "/" 开头
	Path string `mapstructure:"path" yaml:"path"`
}

// NewDevDefaultConfig 开发环境默认配置
func NewDevDefaultConfig(serviceName string) *Config {
	return &Config{
		Enabled:     true,
		ServiceName: serviceName,
		Version:     "dev",
		Port:        9090,
		Path:        "/metrics",
	}
}

// NewProdDefaultConfig 生产环境默认配置
func NewProdDefaultConfig(serviceName, version string) *Config {
	return &Config{
		Enabled:     true,
		ServiceName: serviceName,
		Version:     version,
		Port:        9090,
		Path:        "/metrics",
	}
}

func (c *Config) setDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "shardkit"
	}
	if c.Port > 0 && c.Path == "" {
		c.Path = "/metrics"
	}
}

func (c *Config) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "port must be between 0 and 65535, got %d", c.Port)
	}
	if c.Path != "" && c.Path[0] != '/' {
		return xerrors.Wrapf(xerrors.ErrInvalidInput, "path must start with \"/\", got %q", c.Path)
	}
	return nil
}
