package workers

import (
	"time"

	"github.com/rs/zerolog/log"

	"grimoire/internal/engine/identity"
	"grimoire/internal/platform/config"
)

// TokenPruner deletes refresh tokens that are past their expiry or were
// revoked longer than the retention window ago.
type TokenPruner struct {
	tokens    *identity.Repository
	retention time.Duration
}

func NewTokenPruner(tokens *identity.Repository, cfg config.TokensConfig) *TokenPruner {
	return &TokenPruner{tokens: tokens, retention: cfg.Retention}
}

func (p *TokenPruner) Run() {
	now := time.Now().Unix()
	cutoff := time.Now().Add(-p.retention).Unix()

	pruned, err := p.tokens.DeleteAllStale(now, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("token prune failed")
		return
	}

	if pruned > 0 {
		log.Info().Int("pruned", pruned).Msg("stale refresh tokens removed")
	}
}
