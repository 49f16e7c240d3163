package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/bobinette/datanet"
)

func init() {
	BaseURIGrantCommand.Flags().StringSlice("search", nil, "usernames to grant search permission to")
	BaseURIGrantCommand.Flags().StringSlice("register", nil, "usernames to grant register permission to")

	BaseURICommand.AddCommand(&BaseURIAllCommand)
	BaseURICommand.AddCommand(&BaseURIRegisterCommand)
	BaseURICommand.AddCommand(&BaseURIGrantCommand)
	RootCmd.AddCommand(&BaseURICommand)
}

var BaseURICommand = cobra.Command{
	Use:   "baseuri",
	Short: "Manage base URIs",
	Long:  "Manage base URIs and the permissions held on them",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			logger.Fatal("baseuri wants 1 argument: the base URI")
		}

		permissions, err := permissionService.Show(args[0])
		if err != nil {
			logger.Fatal("error retrieving permissions:", err)
		}

		logger.Print(formatJSON(permissions))
	},
}

var BaseURIAllCommand = cobra.Command{
	Use:   "all",
	Short: "List all base URIs",
	Long:  "List all base URIs",
	Run: func(cmd *cobra.Command, args []string) {
		baseURIs, err := baseURIStore.List()
		if err != nil {
			logger.Fatal("error listing base URIs:", err)
		}

		for _, baseURI := range baseURIs {
			logger.Print(baseURI.URI)
		}
	},
}

var BaseURIRegisterCommand = cobra.Command{
	Use:   "register",
	Short: "Register a base URI",
	Long:  "Register a base URI, in its canonical form without trailing slash",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			logger.Fatal("baseuri register wants 1 argument: the base URI")
		}

		uri := strings.TrimRight(args[0], "/")
		if uri == "" {
			logger.Fatal("baseuri register wants a non-empty base URI")
		}

		baseURI, err := baseURIStore.Register(uri)
		if err != nil {
			logger.Fatal("error registering base URI:", err)
		}

		logger.Print(baseURI.URI)
	},
}

var BaseURIGrantCommand = cobra.Command{
	Use:   "grant",
	Short: "Grant permissions on a base URI",
	Long:  "Grant search and register permissions on a base URI: baseuri grant <base_uri> --search <users> --register <users>",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			logger.Fatal("baseuri grant wants 1 argument: the base URI")
		}

		search, err := cmd.Flags().GetStringSlice("search")
		if err != nil {
			logger.Fatal("error reading search flag:", err)
		}
		register, err := cmd.Flags().GetStringSlice("register")
		if err != nil {
			logger.Fatal("error reading register flag:", err)
		}

		skipped, err := permissionService.Update(datanet.PermissionUpdate{
			BaseURI:                      args[0],
			UsersWithSearchPermissions:   search,
			UsersWithRegisterPermissions: register,
		})
		if err != nil {
			logger.Fatal("error granting permissions:", err)
		}

		for _, username := range skipped {
			logger.Printf("unknown user %s, skipped", username)
		}
	},
}
