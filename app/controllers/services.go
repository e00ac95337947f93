package controllers

import (
	"sync"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/rishikalpadas/mydesignbazaar-sub001/app/repository"
	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/audit"
	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/database"
	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/entitlement"
	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/env"
	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/pricing"
	"github.com/rishikalpadas/mydesignbazaar-sub001/internal/pkg/subscription"
)

// Shared service singletons used by the controllers below. Controllers are
// package-level handlers (no receiver), so their collaborators live here and
// are built once from the global factory.
var (
	auditOnce sync.Once
	auditSink audit.Recorder

	ledgerOnce sync.Once
	ledgerSvc  *subscription.Service

	engineOnce sync.Once
	engine     *entitlement.Engine
)

func auditRecorder() audit.Recorder {
	auditOnce.Do(func() {
		db := database.GetDB()
		if db == nil {
			fiberlog.Warn("audit: database unavailable, events will be discarded")
			auditSink = audit.Nop{}
			return
		}
		auditSink = audit.NewSink(db)
	})
	return auditSink
}

func ledgerService() *subscription.Service {
	ledgerOnce.Do(func() {
		ledgerSvc = subscription.NewService(repository.GetGlobalFactory().GetLedgerRepository()).
			WithStatusStore(subscription.NewRedisStatusStore())
	})
	return ledgerSvc
}

func grantEngine() *entitlement.Engine {
	engineOnce.Do(func() {
		repos := repository.GetGlobalRepositories()
		secret := env.GetEnv("DOWNLOAD_GRANT_SECRET", "")
		if secret == "" {
			// Refuse to start without a signing secret; an unset secret
			// would fail every download request at runtime instead.
			panic("DOWNLOAD_GRANT_SECRET is not set")
		}
		signer := entitlement.NewSigner(secret, entitlement.DefaultGrantTTL)
		engine = entitlement.NewEngine(
			repos.User,
			repos.Design,
			ledgerService(),
			signer,
			entitlement.NewRedisGrantStore(),
			auditRecorder(),
		)
	})
	return engine
}

// catalogSnapshot builds the current pricing catalog: defaults merged with
// settings-table overrides. Orders copy values out of the snapshot, so a
// failed settings read degrades to defaults instead of failing checkout.
func catalogSnapshot() pricing.Catalog {
	settings, err := repository.GetGlobalFactory().GetSettingRepository().List()
	if err != nil {
		fiberlog.Errorf("pricing: failed to load settings overrides: %v", err)
		return pricing.Defaults()
	}
	return pricing.SnapshotFromSettings(settings)
}
