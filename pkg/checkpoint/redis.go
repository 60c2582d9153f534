package checkpoint

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arthur-debert/pgmirror/pkg/errors"
	"github.com/arthur-debert/pgmirror/pkg/settings"
)

// Redis stores the checkpoint under a namespaced key.
type Redis struct {
	key    string
	client *redis.Client
}

// NewRedis builds a redis checkpoint from the configured URL and namespace.
func NewRedis(name string, cfg settings.Redis) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigParse, "invalid redis url %q", cfg.URL)
	}
	if cfg.SocketTimeout > 0 {
		opts.ReadTimeout = time.Duration(cfg.SocketTimeout) * time.Second
		opts.WriteTimeout = time.Duration(cfg.SocketTimeout) * time.Second
	}
	return &Redis{
		key:    cfg.Namespace + ":" + name,
		client: redis.NewClient(opts),
	}, nil
}

// Validate pings the server.
func (r *Redis) Validate(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCheckpointAccess, "redis unreachable")
	}
	return nil
}

// Value reads the stored position.
func (r *Redis) Value(ctx context.Context) (int64, bool, error) {
	raw, err := r.client.Get(ctx, r.key).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrapf(err, errors.ErrCheckpointValue, "cannot read checkpoint %q", r.key)
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, errors.Wrapf(err, errors.ErrCheckpointValue, "corrupt checkpoint %q", r.key)
	}
	return value, true, nil
}

// SetValue stores the position.
func (r *Redis) SetValue(ctx context.Context, value int64) error {
	if err := r.client.Set(ctx, r.key, strconv.FormatInt(value, 10), 0).Err(); err != nil {
		return errors.Wrapf(err, errors.ErrCheckpointValue, "cannot write checkpoint %q", r.key)
	}
	return nil
}

// Teardown deletes the key.
func (r *Redis) Teardown(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return errors.Wrapf(err, errors.ErrCheckpointTeardown, "cannot delete checkpoint %q", r.key)
	}
	return nil
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
