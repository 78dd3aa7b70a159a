package http

import (
	"context"
	"net/http"
	"time"

	jwt "github.com/appleboy/gin-jwt/v2"
	_ "github.com/cjsmocjsmo/streamserverclient/docs"
	"github.com/cjsmocjsmo/streamserverclient/src/log"
	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/contrib/static"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Swagger Stream Server Client API
// @version 1.0
// @description Control and inspect the motion detectors of the stream server client.

// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization

// NewRouter builds the REST api. metrics serves the /metrics endpoint and
// may be nil.
func NewRouter(ctx context.Context, configuration *models.Configuration, controller Controller, metrics http.Handler) (*gin.Engine, error) {

	r := gin.New()
	r.Use(gin.Recovery())

	// Profiling
	pprof.Register(r)

	// Setup CORS
	r.Use(CORS())

	// Add Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// The JWT middleware
	middleWare := JWTMiddleWare(configuration.Config.HTTP)
	authMiddleware, err := jwt.New(&middleWare)
	if err != nil {
		return nil, errors.Wrap(err, "JWT Error")
	}

	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	// Add all routes
	AddRoutes(ctx, r, authMiddleware, configuration, controller)

	// Add static routes to UI
	www := "./www"
	if configuration.Config.HTTP != nil && configuration.Config.HTTP.WWW != "" {
		www = configuration.Config.HTTP.WWW
	}
	r.Use(static.Serve("/", static.LocalFile(www, true)))
	r.Use(static.Serve("/dashboard", static.LocalFile(www, true)))
	r.Use(static.Serve("/login", static.LocalFile(www, true)))

	return r, nil
}

// StartServer serves the REST api until ctx is done.
func StartServer(ctx context.Context, configuration *models.Configuration, controller Controller, metrics http.Handler) error {
	r, err := NewRouter(ctx, configuration, controller, metrics)
	if err != nil {
		log.Log.Error("routers.http.StartServer(): " + err.Error())
		return err
	}

	server := &http.Server{
		Addr:    ":" + Port(configuration),
		Handler: r,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Log.Info("routers.http.StartServer(): listening on " + server.Addr)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Log.Error("routers.http.StartServer(): " + err.Error())
		return err
	}
	return nil
}

// Port is the port of the REST api, the command line wins over the
// configuration.
func Port(configuration *models.Configuration) string {
	if configuration.Port != "" {
		return configuration.Port
	}
	if configuration.Config.HTTP != nil && configuration.Config.HTTP.Port != "" {
		return configuration.Config.HTTP.Port
	}
	return "8080"
}
