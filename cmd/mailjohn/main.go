package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/mailjohn/internal/auth/apikey"
	"github.com/dropDatabas3/mailjohn/internal/auth/refresh"
	"github.com/dropDatabas3/mailjohn/internal/cache"
	"github.com/dropDatabas3/mailjohn/internal/config"
	"github.com/dropDatabas3/mailjohn/internal/email"
	mjhttp "github.com/dropDatabas3/mailjohn/internal/http"
	"github.com/dropDatabas3/mailjohn/internal/observability/logger"
	"github.com/dropDatabas3/mailjohn/internal/rate"
	"github.com/dropDatabas3/mailjohn/internal/security/secretbox"
	"github.com/dropDatabas3/mailjohn/internal/security/token"
	"github.com/dropDatabas3/mailjohn/internal/store/pg"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path al YAML de configuración")
	flag.Parse()

	// .env es opcional; en deployments reales todo viene por env vars.
	_ = godotenv.Load()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.App.LogLevel,
		ServiceName: "mailjohn",
	})
	defer func() { _ = logger.Sync() }()
	l := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ─── Storage ───
	store, err := pg.New(ctx, cfg.Storage.DSN, pg.Options{
		MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
		ConnMaxLifetime: config.Dur(cfg.Storage.Postgres.ConnMaxLifetime, 30*time.Minute),
	})
	if err != nil {
		l.Fatal("postgres init failed", logger.Err(err))
	}
	defer store.Close()

	// ─── Cache + rate limit ───
	// Con redis, el cache y los limiters comparten el mismo cliente.
	var (
		cacheClient cache.Client
		sendLimiter rate.Limiter
		authLimiter rate.Limiter
	)
	switch cfg.Cache.Kind {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.Cache.Redis.Addr,
			DB:   cfg.Cache.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			l.Warn("redis no responde al arranque", logger.Err(err))
		}
		cacheClient = cache.NewRedis(rdb, cfg.Cache.Redis.Prefix)
		if cfg.Rate.Enabled {
			sendLimiter = rate.NewRedisLimiter(rdb, "rl:send", cfg.Rate.Send.Limit, config.Dur(cfg.Rate.Send.Window, time.Minute))
			authLimiter = rate.NewRedisLimiter(rdb, "rl:auth", cfg.Rate.Login.Limit, config.Dur(cfg.Rate.Login.Window, time.Minute))
		}
	default:
		cacheClient = cache.NewMemory("", config.Dur(cfg.Cache.Memory.DefaultTTL, 2*time.Minute))
		if cfg.Rate.Enabled {
			sendLimiter = rate.NewMemoryLimiter("rl:send", cfg.Rate.Send.Limit, config.Dur(cfg.Rate.Send.Window, time.Minute))
			authLimiter = rate.NewMemoryLimiter("rl:auth", cfg.Rate.Login.Limit, config.Dur(cfg.Rate.Login.Window, time.Minute))
		}
	}
	defer func() { _ = cacheClient.Close() }()

	// ─── Crypto + tokens ───
	box, err := secretbox.New(cfg.Security.SecretBoxMasterKey)
	if err != nil {
		l.Fatal("secretbox key inválida", logger.Err(err))
	}
	issuer := token.NewIssuer(
		cfg.JWT.Issuer,
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		config.Dur(cfg.JWT.AccessTTL, 15*time.Minute),
		config.Dur(cfg.JWT.RefreshTTL, 7*24*time.Hour),
	)
	rotator := refresh.NewRotator(store, issuer, config.Dur(cfg.Auth.ReuseWindow, refresh.DefaultReuseWindow))
	verifier := apikey.NewVerifier(store, cacheClient)

	// ─── Email ───
	smtpTimeout := config.Dur(cfg.SMTP.Timeout, 15*time.Second)
	provider := email.NewSenderProvider(store, box, smtpTimeout, cfg.SMTP.InsecureSkipVerify)
	dispatcher := email.NewDispatcher(store, provider)
	dispatcher.OnDispatch = mjhttp.ObserveDispatch

	// ─── HTTP ───
	cookies := mjhttp.CookieConfig{
		Domain:   cfg.Auth.Cookie.Domain,
		SameSite: cfg.Auth.Cookie.SameSite,
		Secure:   cfg.Auth.Cookie.Secure,
	}
	router := mjhttp.NewRouter(mjhttp.RouterDeps{
		Repo:   store,
		Issuer: issuer,

		Auth:      &mjhttp.AuthHandler{Repo: store, Rotator: rotator, Issuer: issuer, Cookies: cookies},
		APIKeys:   &mjhttp.APIKeyHandler{Repo: store, Keys: verifier},
		Templates: &mjhttp.TemplateHandler{Repo: store, Dispatcher: dispatcher},
		SMTP:      &mjhttp.SMTPHandler{Repo: store, Box: box, Dispatcher: dispatcher, Timeout: smtpTimeout},
		Logs:      &mjhttp.LogHandler{Repo: store},
		Dashboard: &mjhttp.DashboardHandler{Repo: store},
		Send:      &mjhttp.SendHandler{Verifier: verifier, Dispatcher: dispatcher},

		SendLimiter:        sendLimiter,
		AuthLimiter:        authLimiter,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	})

	api := mjhttp.NewServer(
		cfg.Server.Addr,
		router,
		config.Dur(cfg.Server.ReadTimeout, 10*time.Second),
		config.Dur(cfg.Server.WriteTimeout, 30*time.Second),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Info("api listening", logger.String("addr", api.Addr()))
		return api.ListenAndServe()
	})

	var metrics *mjhttp.Server
	if cfg.Server.MetricsAddr != "" {
		metrics = mjhttp.NewServer(
			cfg.Server.MetricsAddr,
			mjhttp.RegisterMetrics(prometheus.DefaultRegisterer),
			5*time.Second,
			10*time.Second,
		)
		g.Go(func() error {
			l.Info("metrics listening", logger.String("addr", metrics.Addr()))
			return metrics.ListenAndServe()
		})
	}

	// Housekeeping: purga periódica de refresh tokens vencidos.
	g.Go(func() error {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				n, err := store.PurgeExpiredRefreshTokens(gctx, "")
				if err != nil {
					l.Warn("refresh token purge failed", logger.Err(err))
					continue
				}
				if n > 0 {
					l.Info("refresh tokens purged", logger.Count(int(n)))
				}
			}
		}
	})

	// Shutdown ordenado al primer señalazo.
	g.Go(func() error {
		<-gctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if metrics != nil {
			_ = metrics.Shutdown(shCtx)
		}
		return api.Shutdown(shCtx)
	})

	if err := g.Wait(); err != nil {
		l.Fatal("server terminated", logger.Err(err))
	}
	l.Info("shutdown complete")
}
