package strategyconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a strategy YAML and returns the Config with raw bytes.
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(cfg); err != nil {
		return nil, nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, data, err
	}

	return cfg, data, nil
}

// LoadOrDefault loads the file at path, or returns Default when path is
// empty. A non-empty path that cannot be read is still an error so a
// mistyped --config never falls back silently.
func LoadOrDefault(path string) (*Config, []byte, error) {
	if path == "" {
		return Default(), nil, nil
	}
	return Load(path)
}

// Hash generates a SHA256 hash from the Config (canonical JSON).
// 주의: json.Marshal은 map 키를 정렬하므로 Seeds가 있어도 해시 재현 가능
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
