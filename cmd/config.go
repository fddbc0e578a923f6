package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds the advertisement settings, from defaults, an optional config file and
// environment variables (in that order).
type AppConfig struct {
	// Instance name, the OS hostname if empty.
	Name string `koanf:"name"`

	// Host name in the `local` domain, derived from the OS hostname if empty.
	Hostname string `koanf:"hostname" validate:"omitempty,hostname_rfc1123"`

	Service string `koanf:"service" validate:"required"`

	Port int `koanf:"port" validate:"required,gte=1,lte=65535"`

	// TTL of shared and service records, in seconds.
	TTL uint32 `koanf:"ttl" validate:"required"`

	// TTL of records referencing the hostname (SRV, A, AAAA), in seconds.
	HostTTL uint32 `koanf:"host_ttl" validate:"required"`

	// TXT segments of the first TXT record.
	Text []string `koanf:"text" validate:"dive,max=255"`

	// TXT segments of the rapport TXT record.
	Rapport []string `koanf:"rapport" validate:"dive,max=255"`

	// Primary MAC override, otherwise taken from the primary interface.
	MAC string `koanf:"mac" validate:"omitempty,mac"`

	// Owner option sequence number, incremented on each wake from sleep.
	Sequence uint8 `koanf:"sequence"`

	Network string `koanf:"network" validate:"required,oneof=udp udp4 udp6"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`
}

// DEFAULT_APP_CONFIG advertises a MacBook companion-link service on the rapportd port.
var DEFAULT_APP_CONFIG = AppConfig{
	Service:  "_companion-link._tcp",
	Port:     58645,
	TTL:      4500,
	HostTTL:  120,
	Text:     []string{"model=MacBookPro11,1", "osxvers=20"},
	Rapport:  []string{"rpFl=0x20000", "rpMac=0", "rpVr=230.1"},
	Network:  "udp",
	LogLevel: "info",
}

// Lists are separated by semicolons, since TXT values such as `model=MacBookPro11,1` contain
// commas.
const envListSep = ";"

// envLoader loads environment variables with the prefix "CONTINUITY_", and can be mocked
// in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "CONTINUITY_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "CONTINUITY_"))
			value = strings.TrimSpace(value)
			if strings.Contains(value, envListSep) {
				var parts []string
				for _, part := range strings.Split(value, envListSep) {
					if part = strings.TrimSpace(part); part != "" {
						parts = append(parts, part)
					}
				}
				return key, parts
			}
			return key, value
		},
	}), nil)
}

var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// Loads a YAML or JSON file, chosen by extension.
var fileLoader = func(k *koanf.Koanf, path string) error {
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return fmt.Errorf("unsupported config file extension: %s", path)
	}
	return k.Load(file.Provider(path), parser)
}

// LoadConfig returns the validated configuration. The path is optional.
func LoadConfig(path string) (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}
	if path != "" {
		if err := fileLoader(k, path); err != nil {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}
	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &cfg, nil
}
