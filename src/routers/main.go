package routers

import (
	"context"

	"github.com/cjsmocjsmo/streamserverclient/src/components"
	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/cjsmocjsmo/streamserverclient/src/routers/http"
)

func StartWebserver(ctx context.Context, configuration *models.Configuration, agent *components.Agent) error {
	return http.StartServer(ctx, configuration, agent, agent.Metrics.Handler())
}
