package bidding

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/web3guy0/autobid/internal/config"
	"github.com/web3guy0/autobid/internal/freelancer"
)

// AgreementSigner reads and signs project NDAs and IP contracts
type AgreementSigner interface {
	NDA(ctx context.Context, projectID int64) (*freelancer.Agreement, error)
	SignNDA(ctx context.Context, projectID int64) error
	IPContract(ctx context.Context, projectID int64) (*freelancer.Agreement, error)
	SignIPContract(ctx context.Context, projectID int64) error
}

// EliteStats counts elite projects seen and agreements signed
type EliteStats struct {
	EliteSeen      int `json:"elite_seen"`
	NDASigned      int `json:"nda_signed"`
	IPSigned       int `json:"ip_signed"`
	SigningFailure int `json:"signing_failures"`
}

// EliteHandler signs the agreements elite projects require before bidding
type EliteHandler struct {
	signer AgreementSigner
	cfg    config.EliteProjectsConfig

	mu    sync.Mutex
	stats EliteStats
}

func NewEliteHandler(signer AgreementSigner, cfg config.EliteProjectsConfig) *EliteHandler {
	return &EliteHandler{signer: signer, cfg: cfg}
}

// Prepare signs any required, unsigned NDA or IP contract. An error means
// the bid should not be placed.
func (h *EliteHandler) Prepare(ctx context.Context, p *freelancer.Project) error {
	if !p.IsElite() {
		return nil
	}
	h.count(func(s *EliteStats) { s.EliteSeen++ })

	if p.Upgrades.NDA {
		signed, err := h.ensureSigned(ctx, p.ID, "NDA", h.cfg.AutoSignNDA, h.signer.NDA, h.signer.SignNDA)
		if err != nil {
			return err
		}
		if signed {
			h.count(func(s *EliteStats) { s.NDASigned++ })
		}
	}
	if p.Upgrades.IPContract {
		signed, err := h.ensureSigned(ctx, p.ID, "IP contract", h.cfg.AutoSignIPAgreement, h.signer.IPContract, h.signer.SignIPContract)
		if err != nil {
			return err
		}
		if signed {
			h.count(func(s *EliteStats) { s.IPSigned++ })
		}
	}
	return nil
}

func (h *EliteHandler) ensureSigned(
	ctx context.Context,
	projectID int64,
	kind string,
	autoSign bool,
	state func(context.Context, int64) (*freelancer.Agreement, error),
	sign func(context.Context, int64) error,
) (bool, error) {
	agreement, err := state(ctx, projectID)
	if err != nil {
		h.count(func(s *EliteStats) { s.SigningFailure++ })
		return false, fmt.Errorf("check %s: %w", kind, err)
	}
	if agreement.Signed || !agreement.Required {
		return false, nil
	}
	if !autoSign {
		return false, fmt.Errorf("%s required and auto-signing disabled", kind)
	}
	if err := sign(ctx, projectID); err != nil {
		h.count(func(s *EliteStats) { s.SigningFailure++ })
		return false, fmt.Errorf("sign %s: %w", kind, err)
	}
	log.Info().Int64("project_id", projectID).Str("agreement", kind).Msg("✍️ Agreement signed")
	return true, nil
}

func (h *EliteHandler) count(fn func(*EliteStats)) {
	h.mu.Lock()
	fn(&h.stats)
	h.mu.Unlock()
}

// Stats returns elite counters
func (h *EliteHandler) Stats() EliteStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}
