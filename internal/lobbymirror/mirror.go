package lobbymirror

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chimera-chess/relay-server/internal/obslog"
	"github.com/chimera-chess/relay-server/pkg/relaydto"
)

const (
	keyLobby   = "relay:lobby"
	ttlLobby   = time.Hour
	publishTTL = 2 * time.Second
)

// Mirror writes each lobby push to Redis so ops tooling can observe the
// joinable-room list without attaching a websocket. One-way telemetry only:
// the in-process directory stays the single source of truth and the mirror
// is never read back.
type Mirror struct {
	rdb *redis.Client
}

func New(redisURL string) (*Mirror, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for lobby mirror")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Mirror{rdb: rdb}, nil
}

func (m *Mirror) Close() error {
	if m == nil || m.rdb == nil {
		return nil
	}
	return m.rdb.Close()
}

// Publish replaces the mirrored lobby list. Best-effort: failures are logged
// and dropped, never surfaced to the relay.
func (m *Mirror) Publish(rooms []relaydto.RoomSummary) {
	if m == nil || m.rdb == nil {
		return
	}
	if rooms == nil {
		rooms = []relaydto.RoomSummary{}
	}
	raw, err := json.Marshal(rooms)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTTL)
	defer cancel()
	if err := m.rdb.Set(ctx, keyLobby, raw, ttlLobby).Err(); err != nil {
		obslog.L().Warn("lobby_mirror_error", zap.Error(err))
	}
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
