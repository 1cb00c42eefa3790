package main

import (
	"flag"

	"github.com/rs/zerolog/log"

	"github.com/edgelab-io/sensorlogd/internal/config"
	"github.com/edgelab-io/sensorlogd/internal/logging"
	"github.com/edgelab-io/sensorlogd/internal/service"
	"github.com/edgelab-io/sensorlogd/internal/telemetry"
)

func main() {
	var (
		configPath = flag.String("config", "", "TOML config file (optional; flags override)")
		endpoint1  = flag.String("endpoint1", "", "temperature/pressure endpoint address")
		endpoint2  = flag.String("endpoint2", "", "accelerometer endpoint address")
		output     = flag.String("output", "", "output file path")
		adminAddr  = flag.String("admin-addr", "", "optional local status listener, e.g. 127.0.0.1:9000")
	)
	flag.Parse()

	logging.Configure("sensorlogd")

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
		}
		cfg = loaded
		log.Info().Str("path", *configPath).Msg("loaded config")
	}
	if *endpoint1 != "" {
		cfg.Endpoint1Addr = *endpoint1
	}
	if *endpoint2 != "" {
		cfg.Endpoint2Addr = *endpoint2
	}
	if *output != "" {
		cfg.OutputPath = *output
	}
	if *adminAddr != "" {
		cfg.AdminAddr = *adminAddr
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	svcCfg := service.DefaultConfig()
	svcCfg.Endpoints = []telemetry.Profile{
		{Name: "S1", Address: cfg.Endpoint1Addr, Kind: telemetry.KindTempPressure},
		{Name: "S2", Address: cfg.Endpoint2Addr, Kind: telemetry.KindAccelerometer},
	}
	svcCfg.OutputPath = cfg.OutputPath
	svcCfg.AdminAddr = cfg.AdminAddr

	svc, err := service.New(svcCfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build service")
	}

	log.Info().
		Str("endpoint1", cfg.Endpoint1Addr).
		Str("endpoint2", cfg.Endpoint2Addr).
		Str("output", cfg.OutputPath).
		Msg("starting acquisition")
	if err := svc.Run(); err != nil {
		log.Fatal().Err(err).Msg("acquisition stopped")
	}
}
