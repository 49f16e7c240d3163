package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bobinette/datanet"
	"github.com/bobinette/datanet/jwt"
)

func New(
	registrations *datanet.RegistrationService,
	permissions *datanet.PermissionService,
	queries *datanet.QueryService,
	users datanet.UserStore,
	baseURIs datanet.BaseURIStore,
	encoder *jwt.EncodeDecoder,
) (http.Handler, error) {
	router := gin.Default()

	// CORS
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, PUT, POST, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Accept-Language, Authorization, Content-Type")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
		}
		c.Next()
	})

	// Unknown route
	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"message": "Page not found"})
	})

	// Ping
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, map[string]string{"data": "ok"})
	})

	authenticator := Authenticator{Encoder: encoder, Users: users}

	// Datasets
	datasetHandler := DatasetHandler{
		Registrations: registrations,
		Permissions:   permissions,
		Queries:       queries,
		Authenticator: authenticator,
	}
	datasetHandler.RegisterRoutes(router)

	// Admin
	adminHandler := AdminHandler{
		Users:         users,
		BaseURIs:      baseURIs,
		Permissions:   permissions,
		Authenticator: authenticator,
	}
	adminHandler.RegisterRoutes(router)

	return router, nil
}
