// Package sync sequences the pipeline stages: load from the canonical store,
// publish to the CMS, persist the returned ids. Fully sequential per run; no
// automatic retries anywhere, the caller re-invokes on failure.
package sync

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "firmsync/internal/common/errors"
	"firmsync/internal/common/logger"
	"firmsync/internal/common/metrics"
	"firmsync/internal/models"
)

// Store is the canonical relational store surface the orchestrator needs.
type Store interface {
	GetFirmWithLocations(ctx context.Context, firmID int64) (*models.Firm, error)
	SaveExternalIDs(ctx context.Context, firmID, cmsID int64, indexID string) error
	SetVerificationState(ctx context.Context, firmID int64, state models.VerificationState) error
}

// Publisher pushes the external representation to the CMS.
type Publisher interface {
	Publish(ctx context.Context, firm *models.Firm) (int64, error)
}

// Index is the narrow verification-correction surface of the search index.
type Index interface {
	SyncVerification(ctx context.Context, objectID string, state models.VerificationState) error
	GetObject(ctx context.Context, objectID string) (map[string]interface{}, error)
}

// Lease serializes runs for the same firm. A nil Lease disables the guard.
type Lease interface {
	Acquire(ctx context.Context, firmID int64) (func(), error)
}

// Options tune the hardening extras; zero values disable them.
type Options struct {
	// VerifyPropagation enables the bounded read-back that checks whether the
	// CMS's own side effects reached the search index. The propagation itself
	// is the CMS's contract; this only observes and logs.
	VerifyPropagation   bool
	PropagationAttempts int
	PropagationDelay    time.Duration
}

// Result reports a completed run.
type Result struct {
	FirmID        int64  `json:"firmId"`
	RunID         string `json:"runId"`
	CMSID         int64  `json:"cmsId"`
	IndexID       string `json:"indexId,omitempty"`
	Created       bool   `json:"created"`
	LocationCount int    `json:"locationCount"`
}

type Orchestrator struct {
	store     Store
	publisher Publisher
	index     Index
	lease     Lease
	opts      Options
	logger    logger.Logger
}

func New(store Store, publisher Publisher, index Index, lease Lease, opts Options, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		store:     store,
		publisher: publisher,
		index:     index,
		lease:     lease,
		opts:      opts,
		logger:    log.WithFields(map[string]interface{}{"component": "orchestrator"}),
	}
}

// SyncFirm runs the full synchronization: load, publish, persist ids. The
// search index is not written here; the CMS propagates to it on its own, and
// a direct write would race that propagation.
func (o *Orchestrator) SyncFirm(ctx context.Context, firmID int64) (*Result, error) {
	runID := uuid.NewString()
	log := o.logger.WithFields(map[string]interface{}{
		"firmId": firmID,
		"runId":  runID,
	})
	log.Info("starting full synchronization", nil)

	if o.lease != nil {
		release, err := o.lease.Acquire(ctx, firmID)
		if err != nil {
			return nil, o.fail("sync", log, err)
		}
		defer release()
	}

	firm, err := o.store.GetFirmWithLocations(ctx, firmID)
	if err != nil {
		return nil, o.fail("sync", log, err)
	}
	if firm == nil {
		return nil, o.fail("sync", log, apperrors.NewFirmNotFoundError(firmID))
	}

	// Non-fatal: the firm is still published with an empty location list.
	if len(firm.Locations) == 0 {
		log.Warn("firm has no locations, publishing anyway", nil)
	}

	created := firm.CMSID == nil

	cmsID, err := o.publisher.Publish(ctx, firm)
	if err != nil {
		// The canonical store stays untouched on a failed publish.
		return nil, o.fail("sync", log, err)
	}

	if err := o.store.SaveExternalIDs(ctx, firmID, cmsID, firm.SearchIndexID); err != nil {
		// Known divergence: the entry is live in the CMS while the canonical
		// store still shows the firm unsynced. Recovery is a re-invocation.
		log.Error("cms publish succeeded but persisting ids failed", map[string]interface{}{
			"cmsId": cmsID,
		})
		return nil, o.fail("sync", log, err)
	}

	if o.opts.VerifyPropagation && firm.SearchIndexID != "" {
		o.confirmPropagation(ctx, log, firm)
	}

	metrics.SyncRunsCompleted.WithLabelValues("sync").Inc()
	log.Info("synchronization complete", map[string]interface{}{
		"cmsId":   cmsID,
		"created": created,
	})

	return &Result{
		FirmID:        firmID,
		RunID:         runID,
		CMSID:         cmsID,
		IndexID:       firm.SearchIndexID,
		Created:       created,
		LocationCount: len(firm.Locations),
	}, nil
}

// SetVerification writes the new verification state and re-runs the full
// pipeline. Verification changes are never applied as a narrow patch; the
// complete flow is what makes every derived system converge.
func (o *Orchestrator) SetVerification(ctx context.Context, firmID int64, state models.VerificationState) (*Result, error) {
	if !state.Valid() {
		err := apperrors.NewValidationError("verification state must be one of pending, verified, rejected")
		return nil, o.fail("set-verification", o.logger, err)
	}

	if err := o.store.SetVerificationState(ctx, firmID, state); err != nil {
		return nil, o.fail("set-verification", o.logger, err)
	}

	result, err := o.SyncFirm(ctx, firmID)
	if err != nil {
		return nil, err
	}
	metrics.SyncRunsCompleted.WithLabelValues("set-verification").Inc()
	return result, nil
}

// FixIndexVerification is the narrow direct-correction path: flip the
// verification mirror inside the index record without a full republish. Only
// useful when the CMS propagation left the index stale.
func (o *Orchestrator) FixIndexVerification(ctx context.Context, firmID int64) error {
	firm, err := o.store.GetFirmWithLocations(ctx, firmID)
	if err != nil {
		return o.fail("fix-index", o.logger, err)
	}
	if firm == nil {
		return o.fail("fix-index", o.logger, apperrors.NewFirmNotFoundError(firmID))
	}
	if firm.SearchIndexID == "" {
		err := apperrors.NewValidationError("firm has no search index object id")
		return o.fail("fix-index", o.logger, err)
	}

	if err := o.index.SyncVerification(ctx, firm.SearchIndexID, firm.VerificationState); err != nil {
		return o.fail("fix-index", o.logger, err)
	}

	metrics.SyncRunsCompleted.WithLabelValues("fix-index").Inc()
	return nil
}

// confirmPropagation reads the index a bounded number of times and logs
// whether the verification mirror converged after the publish. Observational
// only; a firm is never failed for a stale index.
func (o *Orchestrator) confirmPropagation(ctx context.Context, log logger.Logger, firm *models.Firm) {
	want := firm.VerificationState.IsVerified()

	for attempt := 1; attempt <= o.opts.PropagationAttempts; attempt++ {
		record, err := o.index.GetObject(ctx, firm.SearchIndexID)
		if err == nil && mirrorConverged(record, want) {
			log.Info("index verification mirror converged", map[string]interface{}{
				"attempts": attempt,
			})
			return
		}
		if attempt < o.opts.PropagationAttempts {
			time.Sleep(o.opts.PropagationDelay)
		}
	}

	log.Warn("index verification mirror not confirmed", map[string]interface{}{
		"objectId": firm.SearchIndexID,
		"attempts": o.opts.PropagationAttempts,
	})
}

func mirrorConverged(record map[string]interface{}, want bool) bool {
	raw, ok := record["locations"].([]interface{})
	if !ok || len(raw) == 0 {
		return true
	}
	for _, item := range raw {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if got, ok := entry["is_verified"].(bool); !ok || got != want {
			return false
		}
	}
	return true
}

func (o *Orchestrator) fail(operation string, log logger.Logger, err error) error {
	code := "UNKNOWN"
	if std, ok := apperrors.AsStandard(err); ok {
		code = string(std.Code)
	}
	metrics.SyncRunsFailed.WithLabelValues(operation, code).Inc()
	log.WithError(err).Error("run failed", map[string]interface{}{
		"operation": operation,
		"errorCode": code,
	})
	return err
}
