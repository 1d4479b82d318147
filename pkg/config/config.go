// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"time"

	"github.com/caarlos0/env"
)

type Config struct {
	QueueEntryTTLMs    int     `env:"QUEUE_ENTRY_TTL_MS"    envDefault:"60000" envDocs:"TTL for matchmaking queue entries before they are treated as stale"`
	TeamLockTTLMs      int     `env:"TEAM_LOCK_TTL_MS"      envDefault:"5000"  envDocs:"TTL for per-team locks taken during pair commit"`
	PairClaimTTLMs     int     `env:"PAIR_CLAIM_TTL_MS"     envDefault:"5000"  envDocs:"TTL for pair claim records taken during pair commit"`
	PieceLockTTLMs     int     `env:"PIECE_LOCK_TTL_MS"     envDefault:"30000" envDocs:"TTL for piece hold locks; expired holds free the piece"`
	MatchDurationMs    int     `env:"MATCH_DURATION_MS"     envDefault:"300000" envDocs:"default match countdown duration"`
	TimerTickMs        int     `env:"TIMER_TICK_MS"         envDefault:"1000"  envDocs:"interval between timer sync ticks per active match"`
	RequireEqualSize   bool    `env:"REQUIRE_EQUAL_SIZE"    envDefault:"true"  envDocs:"only match teams with identical member counts"`
	MaxSizeDelta       int     `env:"MAX_SIZE_DELTA"        envDefault:"0"     envDocs:"max allowed member count difference when equal size is not required"`
	SnapTolerance      float64 `env:"SNAP_TOLERANCE"        envDefault:"24"    envDocs:"max euclidean distance from a cell center for a holder-gated placement"`
	RequireMembership  bool    `env:"REQUIRE_MEMBERSHIP"    envDefault:"true"  envDocs:"reject player-connected events from users not registered on the team"`
	RedisAddr          string  `env:"REDIS_ADDR"            envDefault:"localhost:6379" envDocs:"address of the shared redis store"`
	RedisPassword      string  `env:"REDIS_PASSWORD"        envDefault:""      envDocs:"password of the shared redis store"`
	RedisDB            int     `env:"REDIS_DB"              envDefault:"0"     envDocs:"redis logical database index"`
}

// FromEnv loads the configuration from environment variables.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) QueueEntryTTL() time.Duration { return time.Duration(c.QueueEntryTTLMs) * time.Millisecond }
func (c *Config) TeamLockTTL() time.Duration   { return time.Duration(c.TeamLockTTLMs) * time.Millisecond }
func (c *Config) PairClaimTTL() time.Duration  { return time.Duration(c.PairClaimTTLMs) * time.Millisecond }
func (c *Config) PieceLockTTL() time.Duration  { return time.Duration(c.PieceLockTTLMs) * time.Millisecond }
func (c *Config) MatchDuration() time.Duration { return time.Duration(c.MatchDurationMs) * time.Millisecond }
func (c *Config) TimerTick() time.Duration     { return time.Duration(c.TimerTickMs) * time.Millisecond }
