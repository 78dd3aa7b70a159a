package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cjsmocjsmo/streamserverclient/src/capture"
	"github.com/cjsmocjsmo/streamserverclient/src/components"
	"github.com/cjsmocjsmo/streamserverclient/src/conditions"
	configService "github.com/cjsmocjsmo/streamserverclient/src/config"
	"github.com/cjsmocjsmo/streamserverclient/src/log"
	"github.com/cjsmocjsmo/streamserverclient/src/models"
	"github.com/cjsmocjsmo/streamserverclient/src/routers"
)

const VERSION = "1.0.0"

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  streamserverclient version")
	fmt.Println("  streamserverclient run <name> <port> [config directory]")
	fmt.Println("  streamserverclient probe <rtsp url>")
}

func main() {

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	action := os.Args[1]

	// Log to stdout until the configuration tells otherwise.
	log.Log.Init("logrus", "info", ".", time.Local)

	switch action {
	case "version":
		log.Log.Info("main.main(): you are currently running streamserverclient " + VERSION)

	case "probe":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		result, err := capture.Probe(ctx, os.Args[2])
		if err != nil {
			log.Log.Error("main.main(): " + err.Error())
			os.Exit(1)
		}
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))

	case "run":
		{
			if len(os.Args) < 4 {
				usage()
				os.Exit(1)
			}
			name := os.Args[2]
			port := os.Args[3]
			configDirectory := "."
			if len(os.Args) > 4 {
				configDirectory = os.Args[4]
			}

			configuration := &models.Configuration{
				Name: name,
				Port: port,
			}

			// Open this configuration either from the config file or from
			// MongoDB, environment variables win over both.
			if err := configService.OpenConfig(configDirectory, configuration); err != nil {
				log.Log.Fatal("main.main(): " + err.Error())
			}
			configService.OverrideWithEnvironmentVariables(configuration)

			config := configuration.Config
			log.Log.Init(config.LogOutput, config.LogLevel, configDirectory, conditions.Location(config.Timezone))
			log.Log.Info("main.main(): starting streamserverclient " + VERSION + " as " + name)

			// SIGINT and SIGTERM stop all detectors before exiting.
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Bootstrapping the agent
			agent := components.Bootstrap(ctx, configDirectory, configuration, nil)

			// Start the REST API, it returns once ctx is done.
			if err := routers.StartWebserver(ctx, configuration, agent); err != nil {
				log.Log.Error("main.main(): " + err.Error())
			}
			stop()
			agent.Shutdown()
		}
	default:
		fmt.Println("Sorry I don't understand :(")
		usage()
	}
}
