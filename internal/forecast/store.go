package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// ErrArtifactNotFound is returned by Load when nothing is saved for a symbol.
var ErrArtifactNotFound = errors.New("model artifact not found")

// Artifact is a persisted fit. Params holds the model's own encoding.
type Artifact struct {
	RunID     string          `json:"run_id"`
	Model     string          `json:"model"`
	Symbol    string          `json:"symbol"`
	Rows      int             `json:"rows"`
	TrainedAt time.Time       `json:"trained_at"`
	Params    json.RawMessage `json:"params"`
}

// Store persists artifacts keyed by symbol.
type Store interface {
	Save(ctx context.Context, a *Artifact) error
	Load(ctx context.Context, symbol string) (*Artifact, error)
}

// FileStore keeps one JSON file per symbol in Dir.
type FileStore struct {
	Dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model dir: %w", err)
	}
	return &FileStore{Dir: dir}, nil
}

func (s *FileStore) path(symbol string) string {
	return filepath.Join(s.Dir, fmt.Sprintf("model_%s.json", strings.ToUpper(symbol)))
}

// Load reads the artifact for symbol.
func (s *FileStore) Load(_ context.Context, symbol string) (*Artifact, error) {
	data, err := os.ReadFile(s.path(symbol))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrArtifactNotFound
		}
		return nil, err
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Save writes the artifact, replacing any previous one for the symbol.
func (s *FileStore) Save(_ context.Context, a *Artifact) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path(a.Symbol) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(a.Symbol))
}

const redisKeyPrefix = "cryptosentinel:model:"

// RedisStore keeps artifacts as JSON strings under a per-symbol key.
type RedisStore struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewRedisStore wraps rdb. A zero ttl keeps artifacts until overwritten.
func NewRedisStore(rdb *goredis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, a *Artifact) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, redisKeyPrefix+strings.ToUpper(a.Symbol), data, s.ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context, symbol string) (*Artifact, error) {
	data, err := s.rdb.Get(ctx, redisKeyPrefix+strings.ToUpper(symbol)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrArtifactNotFound
		}
		return nil, err
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// NoopStore discards artifacts.
type NoopStore struct{}

func (NoopStore) Save(context.Context, *Artifact) error { return nil }

func (NoopStore) Load(context.Context, string) (*Artifact, error) {
	return nil, ErrArtifactNotFound
}

// OpenStore builds the artifact store named by kind: "file", "redis" or
// "none". Redis is pinged before use.
func OpenStore(ctx context.Context, kind, dir, redisAddr string) (Store, error) {
	switch kind {
	case "file":
		return NewFileStore(dir)
	case "redis":
		rdb := goredis.NewClient(&goredis.Options{Addr: redisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("connect redis %s: %w", redisAddr, err)
		}
		return NewRedisStore(rdb, 30*24*time.Hour), nil
	case "none", "":
		return NoopStore{}, nil
	default:
		return nil, fmt.Errorf("unknown model store %q", kind)
	}
}
