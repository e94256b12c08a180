// Package config loads server settings from defaults, an optional TOML file
// and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"fighterarena/internal/game"
	"fighterarena/internal/submit"
)

// Store drivers
const (
	StoreBolt   = "bolt"
	StoreMemory = "memory"
)

// Config is the full server configuration
type Config struct {
	Server ServerConfig `toml:"server"`
	Game   GameConfig   `toml:"game"`
	Store  StoreConfig  `toml:"store"`
	Chain  ChainConfig  `toml:"chain"`
	Submit SubmitConfig `toml:"submit"`
}

type ServerConfig struct {
	Addr            string        `toml:"addr"`
	StaticDir       string        `toml:"static_dir"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// GameConfig holds the tunable rules of a session
type GameConfig struct {
	TickRate            int           `toml:"tick_rate"`
	ArenaWidth          float64       `toml:"arena_width"`
	ArenaHeight         float64       `toml:"arena_height"`
	BaseEnemies         int           `toml:"base_enemies"`
	EnemyMultiplier     float64       `toml:"enemy_multiplier"`
	AnnounceDelay       time.Duration `toml:"announce_delay"`
	SpawnStagger        time.Duration `toml:"spawn_stagger"`
	MaxConcurrentSpawns int           `toml:"max_concurrent_spawns"`
	// SurvivalLimit ends the game when reached. Zero means no limit.
	SurvivalLimit time.Duration `toml:"survival_limit"`
}

type StoreConfig struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
}

// ChainConfig configures the on-chain relay. An empty PrivateKey disables it.
type ChainConfig struct {
	RPCURL          string `toml:"rpc_url"`
	ContractAddress string `toml:"contract_address"`
	PrivateKey      string `toml:"private_key"`
	ChainID         int64  `toml:"chain_id"`
}

type SubmitConfig struct {
	ChainWait       time.Duration `toml:"chain_wait"`
	AttemptTimeout  time.Duration `toml:"attempt_timeout"`
	MaxAttempts     int           `toml:"max_attempts"`
	BackoffBase     time.Duration `toml:"backoff_base"`
	BackoffMax      time.Duration `toml:"backoff_max"`
	DeadLetterLimit int           `toml:"dead_letter_limit"`
}

// Default returns the built-in configuration
func Default() Config {
	rules := game.DefaultRules()
	opts := submit.DefaultOptions()
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			StaticDir:       "./static",
			ShutdownTimeout: 10 * time.Second,
		},
		Game: GameConfig{
			TickRate:            rules.TickRate,
			ArenaWidth:          rules.ArenaWidth,
			ArenaHeight:         rules.ArenaHeight,
			BaseEnemies:         rules.BaseEnemies,
			EnemyMultiplier:     rules.EnemyMultiplier,
			AnnounceDelay:       rules.AnnounceDelay,
			SpawnStagger:        rules.SpawnStagger,
			MaxConcurrentSpawns: rules.MaxConcurrentSpawns,
			SurvivalLimit:       rules.SurvivalLimit,
		},
		Store: StoreConfig{
			Driver: StoreBolt,
			Path:   "arena.db",
		},
		Chain: ChainConfig{
			RPCURL: "http://127.0.0.1:8545",
		},
		Submit: SubmitConfig{
			ChainWait:       opts.ChainWait,
			AttemptTimeout:  opts.AttemptTimeout,
			MaxAttempts:     opts.MaxAttempts,
			BackoffBase:     opts.BackoffBase,
			BackoffMax:      opts.BackoffMax,
			DeadLetterLimit: opts.DeadLetterLimit,
		},
	}
}

// Load builds the configuration. path may be empty, in which case only the
// defaults and the environment apply.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		for _, key := range md.Undecoded() {
			log.Printf("Config warning: unknown key %q in %s", key.String(), path)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"ARENA_ADDR":                   &c.Server.Addr,
		"ARENA_STATIC_DIR":             &c.Server.StaticDir,
		"ARENA_DB_PATH":                &c.Store.Path,
		"ARENA_STORE":                  &c.Store.Driver,
		"ARENA_RPC_URL":                &c.Chain.RPCURL,
		"LEADERBOARD_CONTRACT_ADDRESS": &c.Chain.ContractAddress,
		"GAME_WALLET_PRIVATE_KEY":      &c.Chain.PrivateKey,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}

	if v, ok := lookup("ARENA_CHAIN_ID"); ok && v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("ARENA_CHAIN_ID: %w", err)
		}
		c.Chain.ChainID = id
	}
	return nil
}

// Validate rejects settings the server cannot run with
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is empty"))
	}
	if c.Game.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("game.tick_rate must be positive, got %d", c.Game.TickRate))
	}
	if c.Game.ArenaWidth <= 0 || c.Game.ArenaHeight <= 0 {
		errs = append(errs, errors.New("game arena size must be positive"))
	}
	if c.Game.BaseEnemies < 0 || c.Game.EnemyMultiplier < 0 {
		errs = append(errs, errors.New("game.base_enemies and game.enemy_multiplier must not be negative"))
	}
	if c.Game.MaxConcurrentSpawns <= 0 {
		errs = append(errs, errors.New("game.max_concurrent_spawns must be positive"))
	}
	if c.Game.AnnounceDelay < 0 || c.Game.SpawnStagger < 0 || c.Game.SurvivalLimit < 0 {
		errs = append(errs, errors.New("game durations must not be negative"))
	}
	switch c.Store.Driver {
	case StoreMemory:
	case StoreBolt:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the bolt driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if c.Chain.PrivateKey != "" && !submit.ValidAddress(c.Chain.ContractAddress) {
		errs = append(errs, fmt.Errorf("chain.contract_address %q is not a valid address", c.Chain.ContractAddress))
	}
	if c.Submit.MaxAttempts < 0 || c.Submit.ChainWait < 0 {
		errs = append(errs, errors.New("submit settings must not be negative"))
	}
	return errors.Join(errs...)
}

// RelayEnabled reports whether a game wallet is configured
func (c Config) RelayEnabled() bool {
	return c.Chain.PrivateKey != ""
}

// GameRules maps the [game] section onto session rules
func (c Config) GameRules() game.Rules {
	return game.Rules{
		TickRate:            c.Game.TickRate,
		ArenaWidth:          c.Game.ArenaWidth,
		ArenaHeight:         c.Game.ArenaHeight,
		BaseEnemies:         c.Game.BaseEnemies,
		EnemyMultiplier:     c.Game.EnemyMultiplier,
		AnnounceDelay:       c.Game.AnnounceDelay,
		SpawnStagger:        c.Game.SpawnStagger,
		MaxConcurrentSpawns: c.Game.MaxConcurrentSpawns,
		SurvivalLimit:       c.Game.SurvivalLimit,
	}
}

// SubmitOptions maps the [submit] section onto queue options
func (c Config) SubmitOptions() submit.Options {
	return submit.Options{
		ChainWait:       c.Submit.ChainWait,
		AttemptTimeout:  c.Submit.AttemptTimeout,
		MaxAttempts:     c.Submit.MaxAttempts,
		BackoffBase:     c.Submit.BackoffBase,
		BackoffMax:      c.Submit.BackoffMax,
		DeadLetterLimit: c.Submit.DeadLetterLimit,
	}
}
