package http

import (
	"net/http"
	"time"

	jwt "github.com/appleboy/gin-jwt/v2"
	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/cjsmocjsmo/streamserverclient/src/utils"
	"github.com/gin-gonic/gin"
	jwtgo "github.com/golang-jwt/jwt/v4"
)

// AuthEnabled reports whether start and stop require a token.
func AuthEnabled(settings *models.HTTP) bool {
	return settings != nil && settings.Auth == "true"
}

func JWTMiddleWare(settings *models.HTTP) jwt.GinJWTMiddleware {

	if settings == nil {
		settings = &models.HTTP{}
	}
	identityKey := "id"
	myKey := settings.JWTSecret
	if myKey == "" {
		// Tokens do not survive a restart without a configured secret.
		myKey = utils.RandStringBytesMaskImpr(32)
	}

	m := jwt.GinJWTMiddleware{
		Realm:       "streamserverclient",
		Key:         []byte(myKey),
		Timeout:     time.Hour * 24,
		MaxRefresh:  time.Hour * 24 * 7,
		IdentityKey: identityKey,
		PayloadFunc: func(data interface{}) jwt.MapClaims {
			if v, ok := data.(*models.User); ok {
				return jwt.MapClaims{
					identityKey: map[string]interface{}{
						"username": v.Username,
						"role":     v.Role,
					},
				}
			}
			return jwt.MapClaims{}
		},
		IdentityHandler: func(c *gin.Context) interface{} {
			claims := jwt.ExtractClaims(c)
			user, ok := claims[identityKey].(map[string]interface{})
			if !ok {
				return nil
			}
			username, _ := user["username"].(string)
			role, _ := user["role"].(string)
			return &models.User{
				Username: username,
				Role:     role,
			}
		},
		Authenticator: func(c *gin.Context) (interface{}, error) {
			var loginVals models.Authentication
			if err := c.ShouldBind(&loginVals); err != nil {
				return "", jwt.ErrMissingLoginValues
			}
			// Without configured credentials nobody can log in.
			if settings.Username == "" || settings.Password == "" {
				return nil, jwt.ErrFailedAuthentication
			}
			if loginVals.Username == settings.Username && loginVals.Password == settings.Password {
				return &models.User{
					Username: loginVals.Username,
					Role:     "admin",
				}, nil
			}
			return nil, jwt.ErrFailedAuthentication
		},
		LoginResponse: func(c *gin.Context, code int, token string, expire time.Time) {

			// Decrypt the token to return the user next to it.
			hmacSecret := []byte(myKey)
			t, err := jwtgo.Parse(token, func(token *jwtgo.Token) (interface{}, error) {
				return hmacSecret, nil
			})
			username, role := "", ""
			if err == nil {
				if claims, ok := t.Claims.(jwtgo.MapClaims); ok {
					if user, ok := claims[identityKey].(map[string]interface{}); ok {
						username, _ = user["username"].(string)
						role, _ = user["role"].(string)
					}
				}
			}

			c.JSON(http.StatusOK, models.Authorization{
				Code:     http.StatusOK,
				Token:    token,
				Expire:   expire.Format(time.RFC3339),
				Username: username,
				Role:     role,
			})
		},
		Authorizator: func(data interface{}, c *gin.Context) bool {
			_, ok := data.(*models.User)
			return ok
		},
		Unauthorized: func(c *gin.Context, code int, message string) {
			c.AbortWithStatusJSON(code, models.APIResponse{
				Message: message,
			})
		},
		// TokenLookup is a string in the form of "<source>:<name>" that is used
		// to extract token from the request.
		TokenLookup: "header: Authorization, query: token, cookie: jwt",

		// TokenHeadName is a string in the header. Default value is "Bearer"
		TokenHeadName: "Bearer",

		TimeFunc: time.Now,
	}
	return m
}
