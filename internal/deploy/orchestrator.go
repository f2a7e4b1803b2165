// Package deploy orchestrates pushing compiled configuration to the
// switch. A deploy is compile, render, backup, write, reload, verify,
// in that order, with at most one deploy per tenant across the whole
// cluster. Failures after the first file write roll back to the
// backup taken at the start; a rollback that itself fails leaves the
// tenant Failed rather than guessing at a good state.
package deploy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"call-router/internal/common/errors"
	"call-router/internal/common/logging"
	"call-router/internal/compiler"
	"call-router/internal/locks"
	"call-router/internal/models"
)

// State is a tenant's deploy state.
type State string

const (
	StateIdle      State = "idle"
	StateBackingUp State = "backing_up"
	StateWriting   State = "writing"
	StateReloading State = "reloading"
	StateFailed    State = "failed"
)

// PolicySource loads the tenant's policy snapshot to deploy.
type PolicySource interface {
	PolicySet(ctx context.Context, tenantID string) (*models.PolicySet, error)
}

// ArtifactStore persists rendered configuration and its backups.
type ArtifactStore interface {
	WriteFiles(tenantID string, files map[models.ArtifactKind][]byte) error
	Snapshot(tenantID string) (models.Backup, error)
	Restore(tenantID, backupPath string) error
	ListBackups(tenantID string) ([]models.Backup, error)
}

// SwitchControl applies written configuration on the switch.
type SwitchControl interface {
	ReloadXML(ctx context.Context) error
	Verify(ctx context.Context) error
}

// Locker grants cluster-wide per-tenant deploy exclusivity.
type Locker interface {
	AcquireDeployLock(ctx context.Context, tenantID string) (locks.Lock, error)
}

// EventPublisher broadcasts deploy outcomes. May be nil.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// EventChannel is the pub/sub channel deploy outcomes are published on.
const EventChannel = "deploy:events"

// Event is the message published after a deploy or rollback.
type Event struct {
	TenantID   string    `json:"tenant_id"`
	Action     string    `json:"action"` // "deploy" or "rollback"
	Success    bool      `json:"success"`
	BackupPath string    `json:"backup_path,omitempty"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

// Orchestrator runs deploys and rollbacks.
type Orchestrator struct {
	policies  PolicySource
	compiler  *compiler.Compiler
	artifacts ArtifactStore
	switchCtl SwitchControl
	locker    Locker
	events    EventPublisher
	logger    logging.Logger

	group singleflight.Group

	mu     sync.Mutex
	states map[string]State
}

// New creates an orchestrator. events may be nil.
func New(policies PolicySource, comp *compiler.Compiler, artifacts ArtifactStore,
	switchCtl SwitchControl, locker Locker, events EventPublisher, logger logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Orchestrator{
		policies:  policies,
		compiler:  comp,
		artifacts: artifacts,
		switchCtl: switchCtl,
		locker:    locker,
		events:    events,
		logger:    logger,
		states:    make(map[string]State),
	}
}

// TenantState reports the tenant's current deploy state.
func (o *Orchestrator) TenantState(tenantID string) State {
	o.mu.Lock()
	defer o.mu.Unlock()
	if state, ok := o.states[tenantID]; ok {
		return state
	}
	return StateIdle
}

func (o *Orchestrator) setState(tenantID string, state State) {
	o.mu.Lock()
	o.states[tenantID] = state
	o.mu.Unlock()
}

// Deploy compiles and pushes the tenant's current policy to the
// switch. Concurrent calls for the same tenant on this node share one
// execution; cross-node exclusion comes from the distributed lock.
// Cancellation is honored up to the first file write; after that the
// deploy runs to completion or rollback.
func (o *Orchestrator) Deploy(ctx context.Context, tenantID string) (*models.DeployResult, error) {
	if tenantID == "" {
		return nil, errors.ValidationError("tenant id is required")
	}

	result, err, _ := o.group.Do("deploy:"+tenantID, func() (interface{}, error) {
		return o.deploy(ctx, tenantID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.DeployResult), nil
}

func (o *Orchestrator) deploy(ctx context.Context, tenantID string) (*models.DeployResult, error) {
	started := time.Now()

	lock, err := o.locker.AcquireDeployLock(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer lock.Release(context.Background())

	policy, err := o.policies.PolicySet(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	artifacts, err := o.compiler.Compile(policy)
	if err != nil {
		return nil, errors.DeployError("compile", "policy compilation failed", err)
	}
	files, err := compiler.Render(artifacts)
	if err != nil {
		return nil, errors.DeployError("compile", "artifact rendering failed", err)
	}

	o.setState(tenantID, StateBackingUp)
	backup, err := o.artifacts.Snapshot(tenantID)
	if err != nil {
		o.setState(tenantID, StateIdle)
		return nil, errors.DeployError("backup", "failed to snapshot current config", err)
	}

	// Last cancellation point: nothing has touched the live config yet.
	if err := ctx.Err(); err != nil {
		o.setState(tenantID, StateIdle)
		return nil, errors.DeployError("backup", "deploy cancelled before write", err)
	}

	o.setState(tenantID, StateWriting)
	if err := o.artifacts.WriteFiles(tenantID, files); err != nil {
		return nil, o.failBack(tenantID, backup.Path,
			errors.DeployError("writing", "failed to write artifact files", err))
	}

	o.setState(tenantID, StateReloading)
	reloadCtx := context.WithoutCancel(ctx)
	if err := o.switchCtl.ReloadXML(reloadCtx); err != nil {
		return nil, o.failBack(tenantID, backup.Path,
			errors.DeployError("reloading", "switch reload failed", err))
	}
	if err := o.switchCtl.Verify(reloadCtx); err != nil {
		return nil, o.failBack(tenantID, backup.Path,
			errors.DeployError("verify", "switch verification failed", err))
	}

	o.setState(tenantID, StateIdle)
	result := &models.DeployResult{
		TenantID:      tenantID,
		BackupPath:    backup.Path,
		ArtifactCount: len(artifacts),
		Duration:      time.Since(started),
		Verified:      true,
		CreatedAt:     time.Now().UTC(),
	}

	o.publish(Event{
		TenantID:   tenantID,
		Action:     "deploy",
		Success:    true,
		BackupPath: backup.Path,
		At:         result.CreatedAt,
	})
	o.logger.Info("Deploy complete",
		logging.String("tenant_id", tenantID),
		logging.Int("artifacts", result.ArtifactCount),
		logging.Duration("duration", result.Duration))
	return result, nil
}

// failBack restores the pre-deploy backup after a failed write or
// reload. If restoration itself fails the tenant stays Failed and
// needs operator attention.
func (o *Orchestrator) failBack(tenantID, backupPath string, cause *errors.AppError) error {
	o.logger.Error("Deploy failed, rolling back", cause,
		logging.String("tenant_id", tenantID),
		logging.String("backup", backupPath))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := o.artifacts.Restore(tenantID, backupPath); err != nil {
		o.setState(tenantID, StateFailed)
		o.publish(Event{TenantID: tenantID, Action: "deploy", Error: cause.Error(), At: time.Now().UTC()})
		return errors.RollbackError(
			fmt.Sprintf("deploy failed and restore did not recover: %v", err), cause)
	}
	if err := o.switchCtl.ReloadXML(ctx); err != nil {
		o.setState(tenantID, StateFailed)
		o.publish(Event{TenantID: tenantID, Action: "deploy", Error: cause.Error(), At: time.Now().UTC()})
		return errors.RollbackError(
			fmt.Sprintf("deploy failed and rollback reload did not recover: %v", err), cause)
	}

	o.setState(tenantID, StateIdle)
	o.publish(Event{TenantID: tenantID, Action: "deploy", Error: cause.Error(), At: time.Now().UTC()})
	return cause
}

// Rollback restores a named backup and reloads the switch. Fails
// closed: any error leaves the tenant Failed.
func (o *Orchestrator) Rollback(ctx context.Context, tenantID, backupPath string) error {
	if tenantID == "" {
		return errors.ValidationError("tenant id is required")
	}
	if backupPath == "" {
		return errors.ValidationError("backup path is required")
	}

	_, err, _ := o.group.Do("rollback:"+tenantID, func() (interface{}, error) {
		return nil, o.rollback(ctx, tenantID, backupPath)
	})
	return err
}

func (o *Orchestrator) rollback(ctx context.Context, tenantID, backupPath string) error {
	lock, err := o.locker.AcquireDeployLock(ctx, tenantID)
	if err != nil {
		return err
	}
	defer lock.Release(context.Background())

	o.setState(tenantID, StateWriting)
	if err := o.artifacts.Restore(tenantID, backupPath); err != nil {
		o.setState(tenantID, StateFailed)
		return errors.RollbackError("failed to restore backup", err)
	}

	o.setState(tenantID, StateReloading)
	reloadCtx := context.WithoutCancel(ctx)
	if err := o.switchCtl.ReloadXML(reloadCtx); err != nil {
		o.setState(tenantID, StateFailed)
		return errors.RollbackError("switch reload failed after restore", err)
	}
	if err := o.switchCtl.Verify(reloadCtx); err != nil {
		o.setState(tenantID, StateFailed)
		return errors.RollbackError("switch verification failed after restore", err)
	}

	o.setState(tenantID, StateIdle)
	o.publish(Event{
		TenantID:   tenantID,
		Action:     "rollback",
		Success:    true,
		BackupPath: backupPath,
		At:         time.Now().UTC(),
	})
	o.logger.Info("Rollback complete",
		logging.String("tenant_id", tenantID),
		logging.String("backup", backupPath))
	return nil
}

// CreateBackup snapshots the tenant's live configuration on demand.
func (o *Orchestrator) CreateBackup(ctx context.Context, tenantID string) (models.Backup, error) {
	if tenantID == "" {
		return models.Backup{}, errors.ValidationError("tenant id is required")
	}
	return o.artifacts.Snapshot(tenantID)
}

// ListBackups returns the tenant's backups, newest first.
func (o *Orchestrator) ListBackups(tenantID string) ([]models.Backup, error) {
	return o.artifacts.ListBackups(tenantID)
}

func (o *Orchestrator) publish(event Event) {
	if o.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.events.Publish(ctx, EventChannel, event); err != nil {
		o.logger.Warn("Failed to publish deploy event",
			logging.String("tenant_id", event.TenantID),
			logging.Err(err))
	}
}
