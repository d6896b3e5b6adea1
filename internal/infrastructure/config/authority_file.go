package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// authorityFile is the on-disk form of ORACLE_AUTHORITY_FILE.
type authorityFile struct {
	OracleAddress string `yaml:"oracle_address"`
}

// ResolveOracleAddress returns the authorized oracle address. When an
// authority file is configured it is authoritative, including an empty
// oracle_address, which revokes every oracle. Otherwise ORACLE_ADDRESS is used.
func (c OracleConfig) ResolveOracleAddress() (string, error) {
	if c.AuthorityFile == "" {
		return c.Address, nil
	}

	data, err := os.ReadFile(c.AuthorityFile)
	if err != nil {
		return "", fmt.Errorf("failed to read oracle authority file: %w", err)
	}

	var f authorityFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("failed to parse oracle authority file %s: %w", c.AuthorityFile, err)
	}
	return f.OracleAddress, nil
}
