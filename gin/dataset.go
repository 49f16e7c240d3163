package gin

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/russross/blackfriday"

	"github.com/bobinette/datanet"
	"github.com/bobinette/datanet/errors"
)

type DatasetHandler struct {
	Registrations *datanet.RegistrationService
	Permissions   *datanet.PermissionService
	Queries       *datanet.QueryService
	Authenticator Authenticator
}

func (h *DatasetHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", TextFormatter(h.Count))
	router.GET("/lookup_datasets/:uuid", JSONFormatter(h.Authenticator.Authenticate(h.Lookup)))
	router.POST("/register_dataset", TextFormatter(h.Authenticator.Authenticate(h.Register)))
	router.POST("/search_for_datasets", JSONFormatter(h.Authenticator.Authenticate(h.Search)))

	router.GET("/api/datasets", JSONFormatter(h.Authenticator.Authenticate(h.List)))
	router.GET("/api/datasets/search", JSONFormatter(h.Authenticator.Authenticate(h.SearchText)))
	router.GET("/api/datasets/readme", JSONFormatter(h.Authenticator.Authenticate(h.Readme)))
}

func (h *DatasetHandler) Count(c *gin.Context) (interface{}, error) {
	n, err := h.Queries.Count(c.Request.Context())
	if err != nil {
		return nil, err
	}

	return fmt.Sprintf("%d registered datasets", n), nil
}

func (h *DatasetHandler) Lookup(c *gin.Context) (interface{}, error) {
	user, err := GetUser(c)
	if err != nil {
		return nil, err
	}

	return h.Queries.LookupByUUID(c.Request.Context(), user.Username, c.Param("uuid"))
}

func (h *DatasetHandler) Register(c *gin.Context) (interface{}, error) {
	user, err := GetUser(c)
	if err != nil {
		return nil, err
	}

	var info datanet.Document
	if err := c.ShouldBindJSON(&info); err != nil {
		return nil, errors.New("invalid JSON body", errors.BadRequest(), errors.WithCause(err))
	}

	if err := datanet.ValidateDatasetInfo(info); err != nil {
		return nil, err
	}

	if !user.IsAdmin {
		baseURI := info.String("base_uri")
		ok, err := h.Permissions.CanRegister(user.Username, baseURI)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.New(
				fmt.Sprintf("user %s has no register permission on %s", user.Username, baseURI),
				errors.Forbidden(),
			)
		}
	}

	return h.Registrations.Register(c.Request.Context(), info)
}

func (h *DatasetHandler) Search(c *gin.Context) (interface{}, error) {
	user, err := GetUser(c)
	if err != nil {
		return nil, err
	}

	var query datanet.Document
	if err := c.ShouldBindJSON(&query); err != nil {
		return nil, errors.New("invalid JSON body", errors.BadRequest(), errors.WithCause(err))
	}

	return h.Queries.Search(c.Request.Context(), user.Username, query)
}

func (h *DatasetHandler) List(c *gin.Context) (interface{}, error) {
	user, err := GetUser(c)
	if err != nil {
		return nil, err
	}

	datasets, err := h.Queries.List(c.Request.Context(), user.Username)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"data": datasets,
	}, nil
}

func (h *DatasetHandler) SearchText(c *gin.Context) (interface{}, error) {
	user, err := GetUser(c)
	if err != nil {
		return nil, err
	}

	documents, err := h.Queries.SearchText(c.Request.Context(), user.Username, c.Query("q"))
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"data": documents,
	}, nil
}

func (h *DatasetHandler) Readme(c *gin.Context) (interface{}, error) {
	if _, err := GetUser(c); err != nil {
		return nil, err
	}

	uri := c.Query("uri")
	if uri == "" {
		return nil, errors.New("missing uri parameter", errors.BadRequest())
	}

	readme, err := h.Queries.Readme(c.Request.Context(), uri)
	if err != nil {
		return nil, err
	}

	if c.Query("format") == "html" {
		readme = string(blackfriday.MarkdownCommon([]byte(readme)))
	}

	return map[string]interface{}{
		"uri":    uri,
		"readme": readme,
	}, nil
}
