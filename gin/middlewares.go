package gin

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bobinette/datanet"
	"github.com/bobinette/datanet/errors"
	"github.com/bobinette/datanet/jwt"
)

type HandlerFunc func(*gin.Context) (interface{}, error)

func JSONFormatter(next HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := next(c.Copy())
		if err != nil {
			code := errors.DefaultCode
			if err, ok := err.(errors.Error); ok {
				code = err.Code()
			}

			c.JSON(code, map[string]interface{}{
				"message": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, res)
	}
}

// TextFormatter renders the handler result as plain text. Errors are
// still rendered as JSON, like JSONFormatter does.
func TextFormatter(next HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := next(c.Copy())
		if err != nil {
			code := errors.DefaultCode
			if err, ok := err.(errors.Error); ok {
				code = err.Code()
			}

			c.JSON(code, map[string]interface{}{
				"message": err.Error(),
			})
			return
		}

		c.String(http.StatusOK, "%v", res)
	}
}

func GetUser(c *gin.Context) (*datanet.User, error) {
	u, ok := c.Get("user")
	if !ok {
		return nil, errors.New("could not extract user")
	}

	user, ok := u.(*datanet.User)
	if !ok {
		return nil, errors.New("could not extract user")
	}

	return user, nil
}

type Authenticator struct {
	Encoder *jwt.EncodeDecoder
	Users   datanet.UserStore
}

func (a *Authenticator) Authenticate(next HandlerFunc) HandlerFunc {
	return func(c *gin.Context) (interface{}, error) {
		token := c.Request.Header.Get("Authorization")
		if len(token) <= 6 || strings.ToLower(token[:7]) != "bearer " {
			return nil, errors.New("no token found", errors.Unauthorized())
		}

		username, err := a.Encoder.Decode(token[7:])
		if err != nil {
			return nil, errors.New("invalid token", errors.Unauthorized(), errors.WithCause(err))
		}

		user, err := a.Users.Get(username)
		if err != nil {
			return nil, errors.New("could not get user", errors.WithCause(err))
		} else if user == nil {
			return nil, errors.New(fmt.Sprintf("unknown user %s", username), errors.Unauthorized())
		}

		c.Set("user", user)
		return next(c)
	}
}

// AuthenticateAdmin authenticates like Authenticate and additionally
// requires the user to be an admin.
func (a *Authenticator) AuthenticateAdmin(next HandlerFunc) HandlerFunc {
	return a.Authenticate(func(c *gin.Context) (interface{}, error) {
		user, err := GetUser(c)
		if err != nil {
			return nil, err
		}

		if !user.IsAdmin {
			return nil, errors.New(fmt.Sprintf("user %s is not admin", user.Username), errors.Forbidden())
		}

		return next(c)
	})
}
