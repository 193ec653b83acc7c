package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/redis/go-redis/v9"

	"certer/internal/config"
	"certer/internal/middlewares"
	"certer/internal/workflow"
)

type SessionManager struct {
	*scs.SessionManager
	now func() time.Time
}

// NewRedisClient connects to the configured redis, directly or through
// sentinel, and pings it once.
func NewRedisClient(ctx context.Context, logger *slog.Logger, cfg *config.RedisConfig) (*redis.Client, error) {
	var client *redis.Client

	if cfg.Sentinel != nil {
		logger.Info("connecting to redis via sentinel",
			"master", cfg.Sentinel.MasterName,
			"sentinels", cfg.Sentinel.SentinelAddresses)

		client = redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:       cfg.Sentinel.MasterName,
			SentinelAddrs:    cfg.Sentinel.SentinelAddresses,
			SentinelUsername: cfg.Sentinel.SentinelUsername,
			SentinelPassword: cfg.Sentinel.SentinelPassword,
			Username:         cfg.Username,
			Password:         cfg.Password,
			DB:               cfg.SessionIndex,
			MinIdleConns:     2,
		})
	} else {
		client = redis.NewClient(&redis.Options{
			Addr:         cfg.Address,
			Username:     cfg.Username,
			Password:     cfg.Password,
			DB:           cfg.SessionIndex,
			MinIdleConns: 2,
		})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return client, nil
}

// NewSessionManager builds the cookie session store. client is only used
// when sessions are kept in redis and may be nil otherwise.
func NewSessionManager(cfg *config.Config, client *redis.Client) (*SessionManager, error) {
	sessionManager := scs.New()

	switch cfg.Sessions.Store {
	case "memory":
		sessionManager.Store = memstore.New()
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis session store requires a redis client")
		}
		sessionManager.Store = goredisstore.New(client)
	default:
		return nil, fmt.Errorf("unsupported session store: %s", cfg.Sessions.Store)
	}

	sessionManager.Lifetime = cfg.Sessions.Lifetime
	sessionManager.IdleTimeout = cfg.Sessions.IdleTimeout

	sessionManager.Cookie.Name = cfg.Sessions.Name
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = cfg.Sessions.Secure
	sessionManager.Cookie.Path = "/"

	return &SessionManager{SessionManager: sessionManager, now: time.Now}, nil
}

func (s *SessionManager) LoadAndSave(next http.Handler) http.Handler {
	return s.SessionManager.LoadAndSave(next)
}

func (s *SessionManager) SetAuthenticated(ctx *middlewares.AppContext, username string) {
	s.Put(ctx, string(SessionKeyAuthenticated), true)
	s.Put(ctx, string(SessionKeyUsername), username)
	s.Put(ctx, string(SessionKeyLoginAt), s.now().Unix())
}

func (s *SessionManager) IsAuthenticated(ctx *middlewares.AppContext) bool {
	return s.GetBool(ctx, string(SessionKeyAuthenticated))
}

func (s *SessionManager) GetUsername(ctx *middlewares.AppContext) (string, bool) {
	username := s.GetString(ctx, string(SessionKeyUsername))
	return username, username != ""
}

func (s *SessionManager) GetLoginAt(ctx *middlewares.AppContext) (time.Time, bool) {
	timestamp := s.GetInt64(ctx, string(SessionKeyLoginAt))
	if timestamp == 0 {
		return time.Time{}, false
	}
	return time.Unix(timestamp, 0), true
}

func (s *SessionManager) GetWorkflowState(ctx *middlewares.AppContext) (workflow.State, bool) {
	state, ok := s.Get(ctx, string(SessionKeyWorkflow)).(workflow.State)
	return state, ok
}

func (s *SessionManager) SetWorkflowState(ctx *middlewares.AppContext, state workflow.State) {
	s.Put(ctx, string(SessionKeyWorkflow), state)
}

func (s *SessionManager) RenewToken(ctx *middlewares.AppContext) error {
	return s.SessionManager.RenewToken(ctx)
}

func (s *SessionManager) Logout(ctx *middlewares.AppContext) error {
	return s.Destroy(ctx)
}
