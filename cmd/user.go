/*
Copyright © 2021 Edmond Cotterell

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Daskott/agenda/server"
	"github.com/Daskott/agenda/server/contactbook"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var readPassword = term.ReadPassword

func createUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage agenda users",
	}

	cmd.AddCommand(createUserAddCmd())

	return cmd
}

func createUserAddCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new user",
		Long: `Register a new user directly in the server db.
The password is prompted for, or read from stdin when it is not a terminal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := serverConfig()
			if err != nil {
				return err
			}

			password, err := promptPassword(cmd)
			if err != nil {
				return err
			}

			user, err := server.RegisterUser(context.Background(), config, isDevEnv, contactbook.Credentials{
				Username: username,
				Password: password,
			})
			if err != nil {
				return formattedError("unable to register %q: %v", username, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "user %q registered with id %v\n", user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username of the new user")
	cmd.MarkFlagRequired("username")

	return cmd
}

func promptPassword(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		password, err := readPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", err
		}
		return string(password), nil
	}

	password, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}

	return strings.TrimRight(password, "\r\n"), nil
}
