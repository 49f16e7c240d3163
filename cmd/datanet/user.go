package main

import (
	"encoding/json"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bobinette/datanet"
)

func init() {
	UserRegisterCommand.Flags().Bool("admin", false, "register the users as admins")

	UserCommand.AddCommand(&UserAllCommand)
	UserCommand.AddCommand(&UserRegisterCommand)
	UserCommand.AddCommand(&UserAdminCommand)
	UserCommand.AddCommand(&UserTokenCommand)
	RootCmd.AddCommand(&UserCommand)
}

var UserCommand = cobra.Command{
	Use:   "user",
	Short: "Manage users",
	Long:  "Manage users",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			logger.Fatal("user wants 1 argument: the username")
		}

		user, err := userStore.Get(args[0])
		if err != nil {
			logger.Fatal("error retrieving user:", err)
		} else if user == nil {
			logger.Fatalf("unknown user %s", args[0])
		}

		logger.Print(formatJSON(user))
	},
}

var UserAllCommand = cobra.Command{
	Use:   "all",
	Short: "List all users",
	Long:  "List all users",
	Run: func(cmd *cobra.Command, args []string) {
		users, err := userStore.List()
		if err != nil {
			logger.Fatal("error listing users:", err)
		}

		for _, user := range users {
			logger.Print(formatJSON(user))
		}
	},
}

var UserRegisterCommand = cobra.Command{
	Use:   "register",
	Short: "Register users",
	Long:  "Register users from their usernames, skipping the ones that already exist",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			logger.Fatal("user register wants at least 1 argument: the usernames")
		}

		isAdmin, err := cmd.Flags().GetBool("admin")
		if err != nil {
			logger.Fatal("error reading admin flag:", err)
		}

		registrations := make([]datanet.UserRegistration, len(args))
		for i, username := range args {
			registrations[i] = datanet.UserRegistration{Username: username, IsAdmin: isAdmin}
		}

		skipped, err := userStore.Register(registrations)
		if err != nil {
			logger.Fatal("error registering users:", err)
		}

		for _, username := range skipped {
			logger.Printf("%s already registered, skipped", username)
		}
	},
}

var UserAdminCommand = cobra.Command{
	Use:   "admin",
	Short: "Grant or revoke admin status",
	Long:  "Grant or revoke admin status: user admin <username> <true|false>",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 2 {
			logger.Fatal("user admin wants 2 arguments: the username and true or false")
		}

		isAdmin, err := strconv.ParseBool(args[1])
		if err != nil {
			logger.Fatal("error reading admin status:", err)
		}

		if err := userStore.SetAdmin(args[0], isAdmin); err != nil {
			logger.Fatal("error setting admin status:", err)
		}
	},
}

var UserTokenCommand = cobra.Command{
	Use:   "token",
	Short: "Issue a token",
	Long:  "Issue a token for a username",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			logger.Fatal("user token wants 1 argument: the username")
		}

		token, err := encoder.Encode(args[0])
		if err != nil {
			logger.Fatal("error encoding token:", err)
		}

		logger.Print(token)
	},
}

func formatJSON(i interface{}) string {
	data, err := json.Marshal(i)
	if err != nil {
		logger.Fatal("error marshalling:", err)
	}
	return string(data)
}
