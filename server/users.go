package server

import (
	"context"

	"github.com/Daskott/agenda/server/contactbook"
	"github.com/Daskott/agenda/server/models"
	"github.com/Daskott/agenda/shared"
	"github.com/spf13/viper"
)

// RegisterUser creates a user directly in the db of the server configured by 'config'
func RegisterUser(ctx context.Context, config *viper.Viper, devMode bool, credentials contactbook.Credentials) (*models.User, error) {
	serverConfig, err := shared.LoadServerConfig(config)
	if err != nil {
		return nil, err
	}

	db, err := models.Open(serverConfig.Sqlite.PassPhrase, configDirectory(devMode, serverConfig.Agenda.DataDir), logg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	service, err := contactbook.NewService(models.NewUserRepository(db), models.NewContactRepository(db))
	if err != nil {
		return nil, err
	}

	return service.Register(ctx, credentials)
}
