package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/bobinette/datanet/gin"
)

func init() {
	RootCmd.AddCommand(&WebCommand)
}

var WebCommand = cobra.Command{
	Use:   "web",
	Short: "Start the lookup server",
	Long:  "Start the lookup server",
	Run: func(cmd *cobra.Command, args []string) {
		handler, err := gin.New(
			registrationService,
			permissionService,
			queryService,
			userStore,
			baseURIStore,
			encoder,
		)
		if err != nil {
			logger.Fatal("could not create server:", err)
		}

		logger.Print("server started, listening on ", webAddr)
		logger.Fatal(http.ListenAndServe(webAddr, handler))
	},
}
