package gin

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bobinette/datanet"
	"github.com/bobinette/datanet/errors"
)

type AdminHandler struct {
	Users         datanet.UserStore
	BaseURIs      datanet.BaseURIStore
	Permissions   *datanet.PermissionService
	Authenticator Authenticator
}

func (h *AdminHandler) RegisterRoutes(router *gin.Engine) {
	admin := h.Authenticator.AuthenticateAdmin

	router.GET("/admin/users", JSONFormatter(admin(h.ListUsers)))
	router.POST("/admin/users", JSONFormatter(admin(h.RegisterUsers)))
	router.PUT("/admin/users/:username/admin", JSONFormatter(admin(h.SetAdmin)))

	router.GET("/admin/base_uris", JSONFormatter(admin(h.ListBaseURIs)))
	router.POST("/admin/base_uris", JSONFormatter(admin(h.RegisterBaseURI)))

	router.GET("/admin/permissions", JSONFormatter(admin(h.ShowPermissions)))
	router.POST("/admin/permissions", JSONFormatter(admin(h.UpdatePermissions)))
}

func (h *AdminHandler) ListUsers(c *gin.Context) (interface{}, error) {
	users, err := h.Users.List()
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"data": users,
	}, nil
}

func (h *AdminHandler) RegisterUsers(c *gin.Context) (interface{}, error) {
	var registrations []datanet.UserRegistration
	if err := c.ShouldBindJSON(&registrations); err != nil {
		return nil, errors.New("invalid JSON body", errors.BadRequest(), errors.WithCause(err))
	}

	skipped, err := h.Users.Register(registrations)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"skipped": skipped,
	}, nil
}

func (h *AdminHandler) SetAdmin(c *gin.Context) (interface{}, error) {
	var payload struct {
		IsAdmin bool `json:"is_admin"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		return nil, errors.New("invalid JSON body", errors.BadRequest(), errors.WithCause(err))
	}

	username := c.Param("username")
	if err := h.Users.SetAdmin(username, payload.IsAdmin); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"username": username,
		"is_admin": payload.IsAdmin,
	}, nil
}

func (h *AdminHandler) ListBaseURIs(c *gin.Context) (interface{}, error) {
	baseURIs, err := h.BaseURIs.List()
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"data": baseURIs,
	}, nil
}

func (h *AdminHandler) RegisterBaseURI(c *gin.Context) (interface{}, error) {
	var payload struct {
		BaseURI string `json:"base_uri"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		return nil, errors.New("invalid JSON body", errors.BadRequest(), errors.WithCause(err))
	}

	// The canonical form carries no trailing slash.
	uri := strings.TrimRight(payload.BaseURI, "/")
	if uri == "" {
		return nil, errors.New("base_uri is required", errors.BadRequest())
	}

	return h.BaseURIs.Register(uri)
}

func (h *AdminHandler) ShowPermissions(c *gin.Context) (interface{}, error) {
	baseURI := c.Query("base_uri")
	if baseURI == "" {
		return nil, errors.New("missing base_uri parameter", errors.BadRequest())
	}

	return h.Permissions.Show(baseURI)
}

func (h *AdminHandler) UpdatePermissions(c *gin.Context) (interface{}, error) {
	var update datanet.PermissionUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		return nil, errors.New("invalid JSON body", errors.BadRequest(), errors.WithCause(err))
	}

	skipped, err := h.Permissions.Update(update)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"base_uri": update.BaseURI,
		"skipped":  skipped,
	}, nil
}
