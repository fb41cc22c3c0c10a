package shared

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"
	"github.com/spf13/viper"
)

const DEFAULT_TOKEN_TTL_MINUTES = 60

// LoadServerConfig decodes the server section of 'config' into a ServerConfig
// and validates it.
func LoadServerConfig(config *viper.Viper) (*ServerConfig, error) {
	serverConfig := ServerConfig{}

	err := config.Unmarshal(&serverConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to decode server config: %v", err)
	}

	err = validator.New().Struct(serverConfig)
	if err != nil {
		return nil, fmt.Errorf("invalid server config:\n%v", strings.TrimSpace(err.Error()))
	}

	if serverConfig.Agenda.TokenTTLMinutes == 0 {
		serverConfig.Agenda.TokenTTLMinutes = DEFAULT_TOKEN_TTL_MINUTES
	}

	return &serverConfig, nil
}
