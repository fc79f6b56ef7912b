// Package cryptoconfig loads the tunable crypto parameters: password-hash
// costs, recovery-key stretching and AEAD engine selection. Wire-frozen
// values (domains, PHC layout, nonce sizes) are constants in their packages
// and deliberately absent here. File and environment overrides can raise
// costs above the defaults but validation refuses anything below the
// interop floors.
package cryptoconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"vettid/mobile-core/internal/aead"
	"vettid/mobile-core/internal/passhash"
	"vettid/mobile-core/internal/recovery"
)

const (
	ImplementationNative  = "native"
	ImplementationDerived = "derived"
)

type Config struct {
	PasswordHash PasswordHashConfig
	Recovery     RecoveryConfig
	AEAD         AEADConfig
}

type PasswordHashConfig struct {
	Algorithm          string
	MemoryKiB          uint32
	Time               uint32
	Parallelism        uint8
	FallbackIterations int
}

type RecoveryConfig struct {
	KeyIterations int
}

type AEADConfig struct {
	Implementation string
}

// Default returns the parameters the vault is provisioned with.
func Default() Config {
	p := passhash.DefaultParams()
	return Config{
		PasswordHash: PasswordHashConfig{
			Algorithm:          passhash.AlgorithmArgon2id,
			MemoryKiB:          p.MemoryKiB,
			Time:               p.Time,
			Parallelism:        p.Parallelism,
			FallbackIterations: p.Iterations,
		},
		Recovery: RecoveryConfig{KeyIterations: recovery.KeyIterations},
		AEAD:     AEADConfig{Implementation: ImplementationNative},
	}
}

// FileConfig is the on-disk YAML layout. Zero values mean "not set" and
// leave the default alone during Merge.
type FileConfig struct {
	Crypto CryptoSection `yaml:"crypto"`
}

type CryptoSection struct {
	PasswordHash PasswordHashSection `yaml:"passwordHash"`
	Recovery     RecoverySection     `yaml:"recovery"`
	AEAD         AEADSection         `yaml:"aead"`
}

type PasswordHashSection struct {
	Algorithm          string `yaml:"algorithm"`
	MemoryKiB          int    `yaml:"memoryKiB"`
	Time               int    `yaml:"time"`
	Parallelism        int    `yaml:"parallelism"`
	FallbackIterations int    `yaml:"fallbackIterations"`
}

type RecoverySection struct {
	KeyIterations int `yaml:"keyIterations"`
}

type AEADSection struct {
	Implementation string `yaml:"implementation"`
}

// LoadFromPath reads the first usable config file, layers it over the
// defaults and applies environment overrides on top. Unreadable or
// unparsable files are skipped; with no file at all the result is
// defaults + environment.
func LoadFromPath(configPath string) Config {
	cfg := Default()

	candidates := make([]string, 0, 2)
	if configPath != "" {
		candidates = append(candidates, configPath)
	} else {
		candidates = append(candidates,
			"configs/vettid.yaml",
			"vettid.yaml",
		)
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var parsed FileConfig
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			continue
		}

		merged := cfg
		Merge(&merged, parsed.Crypto)
		ApplyEnvOverrides(&merged)
		return merged
	}

	ApplyEnvOverrides(&cfg)
	return cfg
}

func Merge(dst *Config, src CryptoSection) {
	if src.PasswordHash.Algorithm != "" {
		dst.PasswordHash.Algorithm = src.PasswordHash.Algorithm
	}
	if src.PasswordHash.MemoryKiB > 0 {
		dst.PasswordHash.MemoryKiB = uint32(src.PasswordHash.MemoryKiB)
	}
	if src.PasswordHash.Time > 0 {
		dst.PasswordHash.Time = uint32(src.PasswordHash.Time)
	}
	if src.PasswordHash.Parallelism > 0 && src.PasswordHash.Parallelism <= 255 {
		dst.PasswordHash.Parallelism = uint8(src.PasswordHash.Parallelism)
	}
	if src.PasswordHash.FallbackIterations > 0 {
		dst.PasswordHash.FallbackIterations = src.PasswordHash.FallbackIterations
	}
	if src.Recovery.KeyIterations > 0 {
		dst.Recovery.KeyIterations = src.Recovery.KeyIterations
	}
	if src.AEAD.Implementation != "" {
		dst.AEAD.Implementation = src.AEAD.Implementation
	}
}

func ApplyEnvOverrides(cfg *Config) {
	if algo := strings.TrimSpace(os.Getenv("VETTID_PASSWORD_ALGORITHM")); algo != "" {
		cfg.PasswordHash.Algorithm = algo
	}
	if v, ok := envInt("VETTID_PASSWORD_MEMORY_KIB"); ok {
		cfg.PasswordHash.MemoryKiB = uint32(v)
	}
	if v, ok := envInt("VETTID_PASSWORD_TIME"); ok {
		cfg.PasswordHash.Time = uint32(v)
	}
	if v, ok := envInt("VETTID_PASSWORD_PARALLELISM"); ok && v <= 255 {
		cfg.PasswordHash.Parallelism = uint8(v)
	}
	if v, ok := envInt("VETTID_PASSWORD_FALLBACK_ITERATIONS"); ok {
		cfg.PasswordHash.FallbackIterations = v
	}
	if v, ok := envInt("VETTID_RECOVERY_KEY_ITERATIONS"); ok {
		cfg.Recovery.KeyIterations = v
	}
	if impl := strings.TrimSpace(os.Getenv("VETTID_AEAD_IMPLEMENTATION")); impl != "" {
		cfg.AEAD.Implementation = impl
	}
}

func envInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// Validate refuses parameters the vault would reject or that weaken the
// frozen floors.
func (c Config) Validate() error {
	switch c.PasswordHash.Algorithm {
	case passhash.AlgorithmArgon2id, passhash.AlgorithmPBKDF2:
	default:
		return fmt.Errorf("unknown password algorithm %q", c.PasswordHash.Algorithm)
	}
	if c.PasswordHash.MemoryKiB < 8*1024 {
		return fmt.Errorf("password memory %d KiB below 8192 floor", c.PasswordHash.MemoryKiB)
	}
	if c.PasswordHash.Time < 1 {
		return fmt.Errorf("password time cost must be at least 1")
	}
	if c.PasswordHash.Parallelism < 1 {
		return fmt.Errorf("password parallelism must be at least 1")
	}
	if c.PasswordHash.FallbackIterations < passhash.FallbackIterations {
		return fmt.Errorf("fallback iterations %d below %d floor",
			c.PasswordHash.FallbackIterations, passhash.FallbackIterations)
	}
	if c.Recovery.KeyIterations < recovery.KeyIterations {
		return fmt.Errorf("recovery key iterations %d below %d floor",
			c.Recovery.KeyIterations, recovery.KeyIterations)
	}
	switch c.AEAD.Implementation {
	case ImplementationNative, ImplementationDerived:
	default:
		return fmt.Errorf("unknown aead implementation %q", c.AEAD.Implementation)
	}
	return nil
}

// HashParams maps the config onto the password hasher's parameter struct.
func (c Config) HashParams() passhash.Params {
	return passhash.Params{
		MemoryKiB:   c.PasswordHash.MemoryKiB,
		Time:        c.PasswordHash.Time,
		Parallelism: c.PasswordHash.Parallelism,
		Iterations:  c.PasswordHash.FallbackIterations,
	}
}

// Hasher builds the configured password hasher, selecting the backend by
// algorithm name.
func (c Config) Hasher() (*passhash.Hasher, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var backend passhash.Backend
	switch c.PasswordHash.Algorithm {
	case passhash.AlgorithmPBKDF2:
		backend = passhash.NewPBKDF2Backend()
	default:
		backend = passhash.NewArgon2Backend()
	}
	return passhash.NewWithBackend(backend, c.HashParams())
}

// Cipher returns the configured AEAD engine. Anything but the explicit
// derived selection gets the native one.
func (c Config) Cipher() aead.Cipher {
	if c.AEAD.Implementation == ImplementationDerived {
		return aead.NewDerivedCipher()
	}
	return aead.NewCipher()
}
