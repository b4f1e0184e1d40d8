package session

import (
	"context"
	"time"

	"sealwire/internal/domain"
)

// SelfRepair checks whether the directory still holds this device's bundle
// and re-publishes it if it has gone missing while valid local key material
// exists (the "zombie" state: working local keys, unreachable device).
//
// A pass that finds or restores the publication is remembered for the rest
// of the process, so later ticks are no-ops without a directory query.
func (m *Manager) SelfRepair(ctx context.Context) (domain.RepairResult, error) {
	if m.repairDone.Load() {
		return domain.RepairSkipped, nil
	}

	exists, err := m.dir.Exists(ctx, m.cfg.DID)
	if err != nil {
		return domain.RepairSkipped, err
	}
	if exists {
		m.repairDone.Store(true)
		return domain.RepairHealthy, nil
	}

	bundle, err := m.store.LoadDeviceBundle()
	if err != nil {
		return domain.RepairSkipped, err
	}
	if bundle == nil {
		// Nothing to publish; not memoized so a later provision gets checked.
		return domain.RepairNoKeys, nil
	}

	if err := m.publish(ctx, bundle); err != nil {
		return domain.RepairSkipped, err
	}
	m.repairDone.Store(true)
	m.log.Warn("published bundle was missing from directory; republished")
	return domain.RepairRepublished, nil
}

// KickRepair schedules an immediate repair check. Non-blocking; used as a
// secondary signal when deliveries fail.
func (m *Manager) KickRepair() {
	select {
	case m.repairKick <- struct{}{}:
	default:
	}
}

// RunRepairLoop runs the periodic self-repair check until ctx is cancelled.
// It is detached from every caller's critical path: failures are logged and
// retried with backoff that doubles up to the configured interval.
func (m *Manager) RunRepairLoop(ctx context.Context) {
	wait := m.cfg.RepairBackoff
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-m.repairKick:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		result, err := m.SelfRepair(ctx)
		if err != nil {
			m.log.WithError(err).Warn("self-repair check failed")
			timer.Reset(wait)
			if wait *= 2; wait > m.cfg.RepairInterval {
				wait = m.cfg.RepairInterval
			}
			continue
		}
		if result != domain.RepairSkipped {
			m.log.WithField("result", result.String()).Debug("self-repair pass")
		}
		wait = m.cfg.RepairBackoff
		timer.Reset(m.cfg.RepairInterval)
	}
}
