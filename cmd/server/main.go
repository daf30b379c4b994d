package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/npezzotti/thermoswitch/internal/api"
	"github.com/npezzotti/thermoswitch/internal/automation"
	"github.com/npezzotti/thermoswitch/internal/config"
	"github.com/npezzotti/thermoswitch/internal/database"
	"github.com/npezzotti/thermoswitch/internal/stats"
	"github.com/redis/go-redis/v9"
)

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	configFile         string
	addr               string
	dsn                string
	signingSecret      string
	agentURL           string
	redisAddr          string
	allowedOrigins     stringSliceFlag
	activationTimeout  time.Duration
	tokenTTL           time.Duration
	loginRateLimit     int
	loginRateWindow    time.Duration
	purgeExpiredTokens bool
)

func main() {
	flag.StringVar(&configFile, "config", "", "path to YAML config file")
	flag.StringVar(&addr, "addr", "", "server address")
	flag.StringVar(&dsn, "dsn", "", "database connection string")
	flag.StringVar(&signingSecret, "signing-key", "", "base64 encoded signing key")
	flag.StringVar(&agentURL, "agent-url", "", "websocket URL of the automation agent")
	flag.StringVar(&redisAddr, "redis-addr", "", "redis address for login rate limiting, disabled if empty")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.DurationVar(&activationTimeout, "activation-timeout", 0, "timeout for sensor activation commands")
	flag.DurationVar(&tokenTTL, "token-ttl", 0, "session token lifetime")
	flag.IntVar(&loginRateLimit, "login-rate-limit", 0, "login attempts allowed per window")
	flag.DurationVar(&loginRateWindow, "login-rate-window", 0, "login rate limit window")
	flag.BoolVar(&purgeExpiredTokens, "purge-expired-tokens", false, "delete expired session tokens at startup")
	flag.Parse()

	logger := log.New(os.Stderr, "[thermoswitch] ", log.LstdFlags)

	cfg, err := config.NewConfig(config.Flags{
		ConfigFile:        configFile,
		ServerAddr:        addr,
		DatabaseDSN:       dsn,
		SigningSecret:     signingSecret,
		AllowedOrigins:    allowedOrigins,
		AgentURL:          agentURL,
		RedisAddr:         redisAddr,
		ActivationTimeout: activationTimeout,
		TokenTTL:          tokenTTL,
		LoginRateLimit:    loginRateLimit,
		LoginRateWindow:   loginRateWindow,
	})
	if err != nil {
		logger.Fatal("config:", err)
	}

	dbConn, err := database.NewPgThermoRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Fatal("db close:", err)
		}
	}()

	if err := dbConn.Migrate(); err != nil {
		logger.Fatal("db migrate:", err)
	}

	if purgeExpiredTokens {
		n, err := dbConn.DeleteExpiredTokens()
		if err != nil {
			logger.Fatal("purge expired tokens:", err)
		}
		logger.Printf("purged %d expired tokens", n)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	var limiter api.LoginLimiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = rdb.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			logger.Fatal("redis ping:", err)
		}
		defer rdb.Close()

		limiter = api.NewRedisLoginLimiter(logger, rdb, cfg.LoginRateLimit, cfg.LoginRateWindow)
	}

	agentClient := automation.NewAgentClient(logger, cfg.AgentURL, cfg.ActivationTimeout)

	srv := api.NewThermoswitchApp(mux, logger, dbConn, agentClient, statsUpdater, limiter, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutdown complete")
}
