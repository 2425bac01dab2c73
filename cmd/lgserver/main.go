// Command lgserver runs the L-Game REST API server.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/lgengine/pkg/api"
	"github.com/yourusername/lgengine/pkg/engine"
	"github.com/yourusername/lgengine/pkg/external"
)

const version = "0.1.0"

func main() {
	// Command line flags
	host := flag.String("host", "localhost", "Host to bind to (use 0.0.0.0 for all interfaces)")
	port := flag.Int("port", 8080, "Port to listen on")
	difficulty := flag.String("difficulty", "medium", "Default difficulty (easy, medium, hard)")
	cacheSize := flag.Int("cache", 0, "Mobility cache entries (0 = default, negative = disabled)")
	fastWorkers := flag.Int("fast-workers", 0, "Max concurrent fast requests (0 = default)")
	slowWorkers := flag.Int("slow-workers", 0, "Max concurrent analyses and tournaments (0 = default)")
	tcpPort := flag.Int("tcp-port", 0, "Also serve the line protocol on this TCP port (0 = off)")
	readTimeout := flag.Duration("read-timeout", 30*time.Second, "HTTP read timeout")
	writeTimeout := flag.Duration("write-timeout", 5*time.Minute, "HTTP write timeout")
	jsonLogs := flag.Bool("json", false, "Log JSON instead of console output")
	verbose := flag.Bool("v", false, "Debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("L-Game API Server v%s\n", version)
		os.Exit(0)
	}

	if !*jsonLogs {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	eng, err := engine.NewEngine(engine.EngineOptions{
		CacheSize:  *cacheSize,
		Difficulty: *difficulty,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("engine-create")
	}
	log.Info().Str("difficulty", eng.Difficulty().String()).Msg("engine-ready")

	if *tcpPort > 0 {
		opts := external.DefaultServerOptions()
		opts.Host = *host
		opts.Port = *tcpPort
		opts.Difficulty = eng.Difficulty().String()
		tcp := external.NewServer(eng, opts)
		if err := tcp.Start(); err != nil {
			log.Fatal().Err(err).Msg("external-server-start")
		}
		defer tcp.Stop()
	}

	config := api.DefaultConfig()
	config.Host = *host
	config.Port = *port
	config.ReadTimeout = *readTimeout
	config.WriteTimeout = *writeTimeout
	if *fastWorkers > 0 {
		config.MaxFastWorkers = *fastWorkers
	}
	if *slowWorkers > 0 {
		config.MaxSlowWorkers = *slowWorkers
	}

	server := api.NewServer(eng, config, version)
	if err := server.ListenAndServeWithGracefulShutdown(); err != nil {
		log.Fatal().Err(err).Msg("server")
	}
}
