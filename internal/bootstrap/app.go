package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"gorm.io/gorm"

	"rewear-api/internal/ai"
	"rewear-api/internal/app"
	"rewear-api/internal/cache"
	"rewear-api/internal/config"
	"rewear-api/internal/pkg/hashutil"
	"rewear-api/internal/pkg/jwtutil"
	mongoClient "rewear-api/internal/platform/mongo"
	rabbitmqClient "rewear-api/internal/platform/rabbitmq"
	redisClient "rewear-api/internal/platform/redis"
	"rewear-api/internal/platform/sqldb"
	"rewear-api/internal/ratelimit"
	"rewear-api/internal/repository"
	"rewear-api/internal/repository/mongodb"
	"rewear-api/internal/transport/http/handler"
	"rewear-api/internal/worker"
)

const rateLimitWindow = time.Minute

type App struct {
	Config *config.Config

	Mongo           *mongo.Client
	SQL             *gorm.DB
	Redis           *redis.Client
	MQConn          *amqp.Connection
	AuthEventWorker *worker.AuthEventWorker

	AuthService    *app.AuthService
	ItemService    *app.ItemService
	ChatbotService *app.ChatbotService
	AuthLimiter    ratelimit.Limiter
	ChatLimiter    ratelimit.Limiter

	StartedAt time.Time
}

type authEventStore interface {
	worker.AuthEventStore
	app.AuthEventReader
}

type stores struct {
	users  app.UserStore
	items  app.ItemStore
	events authEventStore
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	a := &App{Config: cfg, StartedAt: time.Now()}
	if err := a.init(ctx); err != nil {
		if closeErr := a.Close(); closeErr != nil {
			log.Printf("release partially initialised resources failed: %v", closeErr)
		}
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	st, err := a.openStores(ctx)
	if err != nil {
		return err
	}

	tokens, err := jwtutil.NewManager(cfg.Auth.JWTSecret, cfg.Auth.Algorithm, cfg.TokenTTL())
	if err != nil {
		return fmt.Errorf("build token manager failed: %w", err)
	}

	var publisher app.AuthEventPublisher
	if cfg.RabbitMQ.URL != "" {
		a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.AuthEventQueue)
		if err != nil {
			return err
		}
		publisher = rabbitmqClient.NewAuthEventPublisher(a.MQConn, cfg.RabbitMQ.AuthEventQueue)

		a.AuthEventWorker = worker.NewAuthEventWorker(a.MQConn, st.events, cfg.RabbitMQ.AuthEventQueue)
		if err := a.AuthEventWorker.Start(ctx); err != nil {
			return fmt.Errorf("start auth event worker failed: %w", err)
		}
	} else {
		log.Printf("rabbitmq disabled, auth events will not be recorded")
	}

	if cfg.Redis.Addr != "" {
		a.Redis, err = redisClient.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		a.AuthLimiter = ratelimit.NewRedisLimiter(a.Redis, "auth", cfg.RateLimit.AuthPerMinute, rateLimitWindow)
		a.ChatLimiter = ratelimit.NewRedisLimiter(a.Redis, "chat", cfg.RateLimit.ChatPerMinute, rateLimitWindow)
		st.items = cache.NewCachedItemStore(st.items, cache.NewItemCache(a.Redis, cfg.ItemCacheTTL()))
	} else {
		log.Printf("redis disabled, using in-process rate limits and no item cache")
		a.AuthLimiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.AuthPerMinute, rateLimitWindow)
		a.ChatLimiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.ChatPerMinute, rateLimitWindow)
	}

	completion := ai.NewOpenAICompatibleClient(ai.ChatConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	}, &http.Client{Timeout: cfg.LLMTimeout() + 5*time.Second})

	a.AuthService = app.NewAuthService(
		st.users,
		hashutil.NewHasher(cfg.Auth.BcryptCost),
		tokens,
		publisher,
		st.events,
	)
	a.ItemService = app.NewItemService(st.items)
	a.ChatbotService = app.NewChatbotService(completion, cfg.LLM.SystemPrompt, cfg.LLMTimeout())
	return nil
}

func (a *App) openStores(ctx context.Context) (*stores, error) {
	cfg := a.Config
	switch cfg.Storage.Driver {
	case config.DriverMongo:
		client, err := mongoClient.New(ctx, cfg.Storage.URL, cfg.Storage.ConnectTries, cfg.RetryBackoff())
		if err != nil {
			return nil, err
		}
		a.Mongo = client

		db := client.Database(cfg.Storage.DBName)
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			return nil, err
		}
		return &stores{
			users:  mongodb.NewUserRepository(db),
			items:  mongodb.NewItemRepository(db),
			events: mongodb.NewAuthEventRepository(db),
		}, nil
	default:
		db, err := sqldb.New(ctx, cfg.Storage.Driver, cfg.Storage.URL, cfg.App.GinMode == "debug")
		if err != nil {
			return nil, err
		}
		a.SQL = db

		if err := repository.AutoMigrate(db); err != nil {
			return nil, err
		}
		return &stores{
			users:  repository.NewUserRepository(db),
			items:  repository.NewItemRepository(db),
			events: repository.NewAuthEventRepository(db),
		}, nil
	}
}

// HealthChecks pings every backing service that is enabled.
func (a *App) HealthChecks() []handler.DependencyCheck {
	var checks []handler.DependencyCheck
	if a.Mongo != nil {
		checks = append(checks, handler.DependencyCheck{Name: "mongo", Check: func(ctx context.Context) error {
			return a.Mongo.Ping(ctx, readpref.Primary())
		}})
	}
	if a.SQL != nil {
		checks = append(checks, handler.DependencyCheck{Name: a.Config.Storage.Driver, Check: func(ctx context.Context) error {
			sqlDB, err := a.SQL.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}})
	}
	if a.Redis != nil {
		checks = append(checks, handler.DependencyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		}})
	}
	if a.MQConn != nil {
		checks = append(checks, handler.DependencyCheck{Name: "rabbitmq", Check: func(context.Context) error {
			if a.MQConn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}})
	}
	return checks
}

func (a *App) Close() error {
	var closeErr error
	if a.AuthEventWorker != nil {
		a.AuthEventWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Mongo.Disconnect(ctx); err != nil {
			closeErr = err
		}
	}
	if a.SQL != nil {
		sqlDB, err := a.SQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
