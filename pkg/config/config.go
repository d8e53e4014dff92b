// Package config loads experiment files.
//
// An experiment file is TOML or YAML, chosen by extension, with the
// sections [experiment], [graph], [model], [scheduler], [cache] and
// [server]:
//
//	[experiment]
//	nodes = "#100;infected_rand_1"
//	stop_at = 500
//	trials = 10
//
//	[graph]
//	id = "squaregrid"
//	kind = "undirected"
//	attributes = { width = 10, height = 10, neighbours = 4, periodic = true }
//
//	[model]
//	id = "growth"
//	attributes = { prob = 0.3 }
//
// Loading starts from [Default], decodes the file over it, applies PLEXSIM_*
// environment overrides and validates the result. Plugin attributes are
// only checked for shape here; their ranges are checked when the
// experiment is built.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/plexsim/pkg/cache"
	"github.com/matzehuels/plexsim/pkg/core/graph"
	perrors "github.com/matzehuels/plexsim/pkg/errors"
	"github.com/matzehuels/plexsim/pkg/sim"
)

const appName = "plexsim"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// File is a parsed experiment file.
type File struct {
	Experiment Experiment `toml:"experiment" yaml:"experiment"`
	Graph      Plugin     `toml:"graph" yaml:"graph"`
	Model      Plugin     `toml:"model" yaml:"model"`
	Scheduler  Scheduler  `toml:"scheduler" yaml:"scheduler"`
	Cache      Cache      `toml:"cache" yaml:"cache"`
	Server     Server     `toml:"server" yaml:"server"`
}

// Experiment holds the run parameters.
type Experiment struct {
	// Nodes is the generator command for the node population.
	Nodes string `toml:"nodes" yaml:"nodes" validate:"required"`
	// Edges is the generator command for edge attributes.
	Edges      string `toml:"edges" yaml:"edges,omitempty"`
	Seed       uint64 `toml:"seed" yaml:"seed"`
	StopAt     int    `toml:"stop_at" yaml:"stop_at" validate:"gte=0,lte=100000000"`
	Trials     int    `toml:"trials" yaml:"trials" validate:"gte=1,lte=1000"`
	AutoDelete bool   `toml:"auto_delete" yaml:"auto_delete"`
}

// Plugin selects a plugin and its parameters.
type Plugin struct {
	ID string `toml:"id" yaml:"id" validate:"required,plugin_id"`
	// Kind is the graph orientation; it is ignored for models.
	Kind       graph.Kind `toml:"kind" yaml:"kind"`
	Attributes Attributes `toml:"attributes" yaml:"attributes,omitempty"`
}

// Attributes are plugin parameters as written in the file. Values may be
// strings, numbers or booleans.
type Attributes map[string]any

// Strings renders every value as the text an attribute range validates.
func (a Attributes) Strings() map[string]string {
	if a == nil {
		return nil
	}
	out := make(map[string]string, len(a))
	for k, v := range a {
		switch v := v.(type) {
		case string:
			out[k] = v
		case bool:
			out[k] = strconv.FormatBool(v)
		case float64:
			out[k] = strconv.FormatFloat(v, 'g', -1, 64)
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}

// Scheduler configures the worker pool.
type Scheduler struct {
	Threads int `toml:"threads" yaml:"threads" validate:"gte=1"`
}

// Cache selects the population cache.
type Cache struct {
	Backend string `toml:"backend" yaml:"backend" validate:"oneof=file redis mongo none"`
	// Dir is the file backend's directory. Empty means [CacheDir].
	Dir string `toml:"dir" yaml:"dir,omitempty"`
	// Prefix is prepended to every key, so experiments sharing a redis or
	// mongo backend can keep their entries apart.
	Prefix string      `toml:"prefix" yaml:"prefix,omitempty"`
	Redis  RedisConfig `toml:"redis" yaml:"redis,omitempty"`
	Mongo  MongoConfig `toml:"mongo" yaml:"mongo,omitempty"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `toml:"addr" yaml:"addr" validate:"omitempty,hostname_port"`
	Username string `toml:"username" yaml:"username,omitempty"`
	Password string `toml:"password" yaml:"password,omitempty"`
	DB       int    `toml:"db" yaml:"db" validate:"gte=0"`
}

// MongoConfig configures the mongo backend.
type MongoConfig struct {
	URI        string `toml:"uri" yaml:"uri" validate:"omitempty,uri"`
	Database   string `toml:"database" yaml:"database,omitempty"`
	Collection string `toml:"collection" yaml:"collection,omitempty"`
}

// Server configures the HTTP control API.
type Server struct {
	Addr string `toml:"addr" yaml:"addr" validate:"required,hostname_port"`
}

// Default returns a configuration with every default applied.
func Default() *File {
	return &File{
		Experiment: Experiment{StopAt: 1000, Trials: 1},
		Graph:      Plugin{Kind: graph.Undirected},
		Scheduler:  Scheduler{Threads: runtime.NumCPU()},
		Cache:      Cache{Backend: BackendFile},
		Server:     Server{Addr: "127.0.0.1:8080"},
	}
}

// Load reads, decodes and validates the experiment file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "experiment file %s", path)
	}
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeIO, err, "read %s", path)
	}

	f, err := Parse(data, Format(path))
	if err != nil {
		return nil, perrors.Wrap(perrors.GetCode(err), err, "%s", path)
	}
	return f, nil
}

// Format returns "toml" or "yaml" based on the extension of path. Anything
// that is not YAML is read as TOML.
func Format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "toml"
	}
}

// Parse decodes data in the given format over [Default], applies the
// environment overrides and validates the result. Unknown keys are errors.
func Parse(data []byte, format string) (*File, error) {
	f := Default()
	switch format {
	case "toml":
		md, err := toml.Decode(string(data), f)
		if err != nil {
			return nil, perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "parse toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, perrors.New(perrors.ErrCodeInvalidConfig, "unknown key %q", undecoded[0].String())
		}
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
			return nil, perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "parse yaml")
		}
	default:
		return nil, perrors.New(perrors.ErrCodeUnsupported, "unsupported config format %q", format)
	}

	applyEnvOverrides(f)
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// applyEnvOverrides lets deployments point at shared infrastructure without
// editing experiment files.
func applyEnvOverrides(f *File) {
	if v := os.Getenv("PLEXSIM_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Scheduler.Threads = n
		}
	}
	if v := os.Getenv("PLEXSIM_CACHE_BACKEND"); v != "" {
		f.Cache.Backend = v
	}
	if v := os.Getenv("PLEXSIM_CACHE_DIR"); v != "" {
		f.Cache.Dir = v
	}
	if v := os.Getenv("PLEXSIM_REDIS_ADDR"); v != "" {
		f.Cache.Redis.Addr = v
	}
	if v := os.Getenv("PLEXSIM_REDIS_PASSWORD"); v != "" {
		f.Cache.Redis.Password = v
	}
	if v := os.Getenv("PLEXSIM_MONGO_URI"); v != "" {
		f.Cache.Mongo.URI = v
	}
	if v := os.Getenv("PLEXSIM_SERVER_ADDR"); v != "" {
		f.Server.Addr = v
	}
}

// SimConfig converts the file into the configuration of an experiment.
func (f *File) SimConfig() sim.Config {
	return sim.Config{
		GraphID:    f.Graph.ID,
		GraphAttrs: f.Graph.Attributes.Strings(),
		GraphKind:  f.Graph.Kind,
		ModelID:    f.Model.ID,
		ModelAttrs: f.Model.Attributes.Strings(),
		Nodes:      f.Experiment.Nodes,
		Edges:      f.Experiment.Edges,
		Seed:       f.Experiment.Seed,
		StopAt:     f.Experiment.StopAt,
		Trials:     f.Experiment.Trials,
		AutoDelete: f.Experiment.AutoDelete,
	}
}

// Keyer returns the cache keyer, scoped by Cache.Prefix when one is set.
func (f *File) Keyer() cache.Keyer {
	if f.Cache.Prefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(nil, f.Cache.Prefix)
}

// OpenCache connects the configured population cache.
func (f *File) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch f.Cache.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendRedis:
		c, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     f.Cache.Redis.Addr,
			Username: f.Cache.Redis.Username,
			Password: f.Cache.Redis.Password,
			DB:       f.Cache.Redis.DB,
		})
		if err != nil {
			return nil, perrors.Wrap(perrors.ErrCodeIO, err, "connect redis cache")
		}
		return c, nil
	case BackendMongo:
		c, err := cache.NewMongoCache(ctx, cache.MongoConfig{
			URI:        f.Cache.Mongo.URI,
			Database:   f.Cache.Mongo.Database,
			Collection: f.Cache.Mongo.Collection,
		})
		if err != nil {
			return nil, perrors.Wrap(perrors.ErrCodeIO, err, "connect mongo cache")
		}
		return c, nil
	default:
		dir := f.Cache.Dir
		if dir == "" {
			var err error
			if dir, err = CacheDir(); err != nil {
				return nil, perrors.Wrap(perrors.ErrCodeIO, err, "locate cache directory")
			}
		}
		c, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, perrors.Wrap(perrors.ErrCodeIO, err, "open file cache")
		}
		return c, nil
	}
}

// CacheDir returns the default file cache directory,
// $XDG_CACHE_HOME/plexsim or ~/.cache/plexsim.
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
