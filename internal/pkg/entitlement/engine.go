package entitlement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rishikalpadas/mydesignbazaar-sub001/app/models"
	"github.com/rishikalpadas/mydesignbazaar-sub001/app/repository"
	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/audit"
	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/subscription"
	"gorm.io/gorm"
)

// Reason enumerates why a download request was denied. Each reason maps to a
// distinct remediation in the UI (register vs renew vs upgrade).
type Reason string

const (
	ReasonNotABuyer      Reason = "not_a_buyer"
	ReasonDesignNotFound Reason = "design_not_found"
	ReasonNoSubscription Reason = "no_subscription"
	ReasonExpired        Reason = "subscription_expired"
	ReasonExhausted      Reason = "credits_exhausted"
)

// Denial is a terminal rejection of a download request. It is immediate and
// final for the request; the engine performs no internal retries.
type Denial struct {
	Reason Reason
}

func (d *Denial) Error() string {
	return "entitlement: denied (" + string(d.Reason) + ")"
}

// AsDenial unwraps a Denial from an error chain.
func AsDenial(err error) (*Denial, bool) {
	var d *Denial
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// Grant is the client-facing download authorization.
type Grant struct {
	Token      string    `json:"token"`
	DesignUUID string    `json:"design_uuid"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Result is a successful download decision.
type Result struct {
	CreditsRemaining int   `json:"credits_remaining"`
	Grant            Grant `json:"grant"`
}

// Engine is the download entitlement decision procedure. Exactly one ledger
// mutation happens per granted download and zero on any denial path.
type Engine struct {
	users   repository.UserRepository
	designs repository.DesignRepository
	ledger  *subscription.Service
	signer  *Signer
	store   GrantStore
	auditor audit.Recorder
}

// NewEngine wires the engine from its collaborators.
func NewEngine(
	users repository.UserRepository,
	designs repository.DesignRepository,
	ledger *subscription.Service,
	signer *Signer,
	store GrantStore,
	auditor audit.Recorder,
) *Engine {
	return &Engine{
		users:   users,
		designs: designs,
		ledger:  ledger,
		signer:  signer,
		store:   store,
		auditor: auditor,
	}
}

func (e *Engine) deny(requesterID uint, designUUID string, reason Reason, internal string) error {
	e.auditor.Record(audit.EventDenied, map[string]any{
		"requester_id": requesterID,
		"design_uuid":  designUUID,
		"reason":       internal,
	})
	return &Denial{Reason: reason}
}

// RequestDownload runs the gates in order: requester role, design
// availability, ledger state, atomic credit consumption. On success one
// credit has been consumed and a signed, short-lived grant is returned.
func (e *Engine) RequestDownload(ctx context.Context, requesterID uint, designUUID string) (*Result, error) {
	// Gate 1: only buyer accounts reach the ledger.
	user, err := e.users.GetByID(requesterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, e.deny(requesterID, designUUID, ReasonNotABuyer, "requester.unknown")
		}
		return nil, err
	}
	if !user.IsBuyer() || !user.IsActive() {
		return nil, e.deny(requesterID, designUUID, ReasonNotABuyer, "requester.not_a_buyer")
	}

	// Gate 2: the design must exist and be approved. The public reason is
	// the same for both so moderation state never leaks to end users; the
	// audit trail keeps them apart.
	design, err := e.designs.GetByUUID(designUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, e.deny(requesterID, designUUID, ReasonDesignNotFound, "design.not_found")
		}
		return nil, err
	}
	if !design.IsDownloadable() {
		return nil, e.deny(requesterID, designUUID, ReasonDesignNotFound, "design.not_approved")
	}

	// Sign before the decrement: a signing failure must never cost a
	// credit. A token minted here is only handed out once the decrement
	// below succeeds.
	grant, err := e.signGrant(requesterID, design)
	if err != nil {
		return nil, err
	}

	// Gates 3+4: the conditional decrement is the sole serialization point.
	// Losing a race for the last credit classifies exactly like arriving
	// with zero credits.
	entry, err := e.ledger.ConsumeCredit(ctx, requesterID)
	if err != nil {
		switch {
		case errors.Is(err, subscription.ErrNoActiveEntry):
			return nil, e.deny(requesterID, designUUID, ReasonNoSubscription, "ledger.no_subscription")
		case errors.Is(err, subscription.ErrEntryExpired):
			return nil, e.deny(requesterID, designUUID, ReasonExpired, "ledger.expired")
		case errors.Is(err, subscription.ErrCreditsExhausted):
			return nil, e.deny(requesterID, designUUID, ReasonExhausted, "ledger.exhausted")
		default:
			return nil, err
		}
	}

	e.auditor.Record(audit.EventGranted, map[string]any{
		"requester_id":      requesterID,
		"design_uuid":       designUUID,
		"credits_remaining": entry.CreditsRemaining,
	})
	return &Result{CreditsRemaining: entry.CreditsRemaining, Grant: *grant}, nil
}

func (e *Engine) signGrant(buyerID uint, design *models.Design) (*Grant, error) {
	claims := &GrantClaims{
		GrantID:         uuid.NewString(),
		BuyerID:         buyerID,
		DesignUUID:      design.UUID,
		ResourceLocator: design.FilePath,
	}
	token, err := e.signer.Sign(claims)
	if err != nil {
		return nil, err
	}
	return &Grant{
		Token:      token,
		DesignUUID: design.UUID,
		ExpiresAt:  time.Unix(claims.ExpiresAt, 0),
	}, nil
}

// IssueGrant mints a grant without touching the ledger. Used by the
// pay-per-download purchase path, where the one-shot payment is the
// entitlement.
func (e *Engine) IssueGrant(ctx context.Context, buyerID uint, designUUID string) (string, time.Time, error) {
	_ = ctx
	design, err := e.designs.GetApprovedByUUID(designUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", time.Time{}, &Denial{Reason: ReasonDesignNotFound}
		}
		return "", time.Time{}, err
	}
	grant, err := e.signGrant(buyerID, design)
	if err != nil {
		return "", time.Time{}, err
	}
	return grant.Token, grant.ExpiresAt, nil
}

// RedeemGrant validates a grant token and consumes its single use, returning
// the claims (including the resource locator) for the file-serving handler.
func (e *Engine) RedeemGrant(ctx context.Context, token string) (*GrantClaims, error) {
	_ = ctx
	claims, err := e.signer.Verify(token)
	if err != nil {
		return nil, err
	}
	ttl := time.Until(time.Unix(claims.ExpiresAt, 0))
	if ttl <= 0 {
		return nil, ErrGrantExpired
	}
	first, err := e.store.MarkRedeemed(claims.GrantID, ttl)
	if err != nil {
		return nil, err
	}
	if !first {
		return nil, ErrGrantAlreadyUsed
	}
	e.auditor.Record(audit.EventGrantRedeemed, map[string]any{
		"grant_id":    claims.GrantID,
		"buyer_id":    claims.BuyerID,
		"design_uuid": claims.DesignUUID,
	})
	return claims, nil
}
