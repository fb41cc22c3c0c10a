package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	devConfig "github.com/Daskott/agenda/dev/config"
	"github.com/Daskott/agenda/server/auth"
	"github.com/Daskott/agenda/server/models"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// writeTestConfig writes the dev config with its data dir pointed at a temp dir
func writeTestConfig(t *testing.T) (configFile string, dataDir string) {
	config := viper.New()
	config.SetConfigType("yaml")
	require.Nil(t, config.ReadConfig(strings.NewReader(devConfig.SERVER_YML)))

	dir := t.TempDir()
	dataDir = filepath.Join(dir, "data")
	config.Set("agenda.dataDir", dataDir)

	configFile = filepath.Join(dir, "server.yml")
	require.Nil(t, config.WriteConfigAs(configFile))

	return configFile, dataDir
}

func executeRootCmd(t *testing.T, stdin string, args ...string) (string, error) {
	savedConfigFile, savedDevEnv := serverConfigFile, isDevEnv
	defer func() {
		serverConfigFile, isDevEnv = savedConfigFile, savedDevEnv
	}()

	cmd := createRootCmd()
	buff := new(bytes.Buffer)
	cmd.SetOut(buff)
	cmd.SetErr(buff)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buff.String(), err
}

func TestUserAddCmd(t *testing.T) {
	savedHashCost := auth.HashCost
	auth.HashCost = bcrypt.MinCost
	defer func() { auth.HashCost = savedHashCost }()

	configFile, dataDir := writeTestConfig(t)

	out, err := executeRootCmd(t, "pw1\n", "user", "add", "--username", "alice", "--sconfig", configFile)
	require.Nil(t, err, out)
	assert.Contains(t, out, `user "alice" registered`)

	config := viper.New()
	config.SetConfigFile(configFile)
	require.Nil(t, config.ReadInConfig())

	db, err := models.Open(config.GetString("sqlite.passPhrase"), dataDir, nil)
	require.Nil(t, err)
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	user, err := models.NewUserRepository(db).FindByUsername(context.Background(), "alice")
	require.Nil(t, err)
	assert.True(t, auth.CheckPasswordHash("pw1", user.Password))

	t.Run("duplicate username fails", func(t *testing.T) {
		_, err := executeRootCmd(t, "pw2\n", "user", "add", "--username", "alice", "--sconfig", configFile)
		require.NotNil(t, err)
		assert.Contains(t, err.Error(), "username already taken")
	})
}

func TestUserAddCmdErrors(t *testing.T) {
	configFile, _ := writeTestConfig(t)

	testCases := []struct {
		description string
		stdin       string
		args        []string
		expectedErr string
	}{
		{
			description: "Should fail when username flag is not provided",
			args:        []string{"user", "add", "--sconfig", configFile},
			expectedErr: `"username" not set`,
		},
		{
			description: "Should fail without a server config",
			stdin:       "pw1\n",
			args:        []string{"user", "add", "--username", "alice"},
			expectedErr: "--sconfig",
		},
		{
			description: "Should fail with a missing config file",
			stdin:       "pw1\n",
			args:        []string{"user", "add", "--username", "alice", "--sconfig", filepath.Join(t.TempDir(), "nope.yml")},
			expectedErr: "error reading server config file",
		},
		{
			description: "Should fail with an empty password",
			stdin:       "\n",
			args:        []string{"user", "add", "--username", "alice", "--sconfig", configFile},
			expectedErr: "password",
		},
	}

	for _, tc := range testCases {
		_, err := executeRootCmd(t, tc.stdin, tc.args...)
		require.NotNil(t, err, tc.description)
		assert.Contains(t, err.Error(), tc.expectedErr, tc.description)
	}
}

func TestVersionFlag(t *testing.T) {
	out, err := executeRootCmd(t, "", "--version")
	require.Nil(t, err)
	assert.Contains(t, out, "agenda version v")
}
