// Command datasetd serves the dataset catalog described by a YAML
// catalog file over HTTP.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/AusClimateService/dataset-finder/internal/catalog"
	"github.com/AusClimateService/dataset-finder/internal/httpapi"
	"github.com/AusClimateService/dataset-finder/internal/logging"
	"github.com/AusClimateService/dataset-finder/internal/metrics"
)

func main() {
	catalogPath := flag.String("catalog", "", "path to the YAML catalog file")
	addr := flag.String("addr", ":8080", "address to listen on")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "console", "log format (console, json)")
	flag.Parse()

	if *catalogPath == "" {
		fmt.Println("Usage: datasetd -catalog <path-to-yaml> [-addr :8080] [-log-level info] [-log-format console]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	diag := logging.NewDiagnosticsBuffer(512, zerolog.WarnLevel)
	logger := logging.InitGlobalLogger(logging.LogLevel(*logLevel), *logFormat, diag)

	loader, err := catalog.NewLoader(*catalogPath)
	if err != nil {
		logging.WithError(err).Fatal().Msg("failed to load catalog")
		os.Exit(1)
	}

	m := metrics.New()
	server := httpapi.NewServer(loader, m, diag)

	logger.WithField("addr", *addr).Info().Str("catalog", *catalogPath).Msg("starting dataset-finder server")
	if err := server.Listen(*addr); err != nil {
		logging.WithError(err).Fatal().Msg("server exited")
		os.Exit(1)
	}
}
