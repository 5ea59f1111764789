package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// SeedContact is one directory entry: owner knows Email under DisplayName.
type SeedContact struct {
	Owner       string `mapstructure:"owner"`
	DisplayName string `mapstructure:"display_name"`
	Email       string `mapstructure:"email"`
	Phone       string `mapstructure:"phone"`
	Role        string `mapstructure:"role"`
}

// LoadDirectorySeed reads a file of the form
//
//	contacts:
//	  - owner: ana@acme.io
//	    display_name: Bo
//	    email: bo@acme.io
func LoadDirectorySeed(path string) ([]SeedContact, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading directory seed: %w", err)
	}

	var seed struct {
		Contacts []SeedContact `mapstructure:"contacts"`
	}
	if err := v.Unmarshal(&seed); err != nil {
		return nil, fmt.Errorf("decoding directory seed: %w", err)
	}
	for i, c := range seed.Contacts {
		if c.Owner == "" || c.Email == "" {
			return nil, fmt.Errorf("directory seed entry %d: owner and email are required", i)
		}
	}
	return seed.Contacts, nil
}
