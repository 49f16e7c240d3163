package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/bobinette/datanet"
	"github.com/bobinette/datanet/bleve"
	"github.com/bobinette/datanet/bolt"
	"github.com/bobinette/datanet/jwt"
	"github.com/bobinette/datanet/log"
	"github.com/bobinette/datanet/mongo"
	"github.com/bobinette/datanet/mysql"
)

var (
	// flags
	env string

	// web
	webAddr string

	// logger
	logger log.Logger

	// auth
	encoder *jwt.EncodeDecoder

	// drivers
	mysqlDriver *mysql.Driver
	mongoDriver *mongo.Driver
	boltDriver  *bolt.Driver
	bleveIndex  *bleve.DatasetIndex

	// stores
	userStore       datanet.UserStore
	baseURIStore    datanet.BaseURIStore
	datasetStore    datanet.DatasetStore
	permissionStore datanet.PermissionStore
	documentStore   datanet.DocumentStore
	datasetIndex    datanet.DatasetIndex

	// services
	registrationService *datanet.RegistrationService
	permissionService   *datanet.PermissionService
	queryService        *datanet.QueryService
)

type Configuration struct {
	Auth struct {
		Key string `toml:"key"`
	} `toml:"auth"`
	MySQL struct {
		Host     string `toml:"host"`
		Port     string `toml:"port"`
		Username string `toml:"username"`
		Password string `toml:"password"`
		Database string `toml:"database"`
	} `toml:"mysql"`
	Mongo struct {
		URI        string `toml:"uri"`
		Database   string `toml:"database"`
		Collection string `toml:"collection"`
	} `toml:"mongo"`
	Bolt struct {
		Store string `toml:"store"`
	} `toml:"bolt"`
	Bleve struct {
		Store string `toml:"store"`
	} `toml:"bleve"`
	Web struct {
		Addr string `toml:"addr"`
	} `toml:"web"`
}

func init() {
	RootCmd.PersistentFlags().StringVar(&env, "env", "dev", "environment")
}

var RootCmd = cobra.Command{
	Use:   "datanet",
	Short: "Lookup server for versioned datasets",
	Long:  "Lookup server for versioned datasets",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Load configuration
		cfgData, err := os.ReadFile(fmt.Sprintf("configuration/config.%s.toml", env))
		if err != nil {
			fmt.Println("error reading configuration:", err)
			return
		}

		var cfg Configuration
		err = toml.Unmarshal(cfgData, &cfg)
		if err != nil {
			fmt.Println("error unmarshalling configuration:", err)
			return
		}

		// Create logger
		logger = log.New(env)

		webAddr = cfg.Web.Addr
		if webAddr == "" {
			webAddr = ":1707"
		}

		// Create encoder
		keyData, err := os.ReadFile(cfg.Auth.Key)
		if err != nil {
			logger.Fatal("could not open key file:", err)
		}
		encoder = jwt.NewEncodeDecoder(bytes.TrimSpace(keyData))

		// Create admin stores
		mysqlDriver, err = mysql.NewDriver(
			cfg.MySQL.Host,
			cfg.MySQL.Port,
			cfg.MySQL.Username,
			cfg.MySQL.Password,
			cfg.MySQL.Database,
		)
		if err != nil {
			logger.Fatal("could not connect to admin store:", err)
		}
		userStore = mysql.NewUserStore(mysqlDriver)
		baseURIStore = mysql.NewBaseURIStore(mysqlDriver)
		datasetStore = mysql.NewDatasetStore(mysqlDriver)
		permissionStore = mysql.NewPermissionStore(mysqlDriver)

		// Create document store: mongo when configured, bolt otherwise
		if cfg.Mongo.URI != "" {
			mongoDriver, err = mongo.NewDriver(cfg.Mongo.URI, cfg.Mongo.Database)
			if err != nil {
				logger.Fatal("could not connect to document store:", err)
			}
			documentStore = mongo.NewDocumentStore(mongoDriver, cfg.Mongo.Collection)
		} else {
			boltDriver = &bolt.Driver{}
			if err := boltDriver.Open(cfg.Bolt.Store); err != nil {
				logger.Fatal("could not open document store:", err)
			}
			documentStore = &bolt.DocumentStore{Driver: boltDriver}
		}

		// Create index
		if cfg.Bleve.Store != "" {
			bleveIndex = &bleve.DatasetIndex{}
			if err := bleveIndex.Open(cfg.Bleve.Store); err != nil {
				logger.Fatal("could not open index:", err)
			}
			datasetIndex = bleveIndex
		}

		// Create services
		registrationService = datanet.NewRegistrationService(baseURIStore, datasetStore, documentStore, datasetIndex, logger)
		permissionService = datanet.NewPermissionService(userStore, baseURIStore, permissionStore)
		queryService = datanet.NewQueryService(userStore, datasetStore, documentStore, permissionStore, datasetIndex)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if mysqlDriver != nil {
			mysqlDriver.Close()
		}
		if mongoDriver != nil {
			mongoDriver.Close(context.Background())
		}
		if boltDriver != nil {
			boltDriver.Close()
		}
		if bleveIndex != nil {
			bleveIndex.Close()
		}
	},
}
