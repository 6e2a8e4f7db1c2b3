package config

import (
	"fmt"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Notifications.validate(); err != nil {
		return fmt.Errorf("notifications: %w", err)
	}
	return nil
}

func (n *NotificationsConfig) validate() error {
	if n.RecoveryWindow <= 0 {
		return fmt.Errorf("recovery_window must be > 0 (got %v)", n.RecoveryWindow)
	}
	if n.TTL <= 0 {
		return fmt.Errorf("ttl must be > 0 (got %v)", n.TTL)
	}
	if n.HandledRetention <= 0 {
		return fmt.Errorf("handled_retention must be > 0 (got %v)", n.HandledRetention)
	}
	if n.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be > 0 (got %v)", n.TickInterval)
	}
	if n.SessionRetention <= 0 {
		return fmt.Errorf("session_retention must be > 0 (got %v)", n.SessionRetention)
	}
	if n.PendingListLimit <= 0 {
		return fmt.Errorf("pending_list_limit must be > 0 (got %d)", n.PendingListLimit)
	}

	// A recovered notification must still have life left in it; a window
	// at or beyond the TTL would recreate rows that expire immediately.
	if n.RecoveryWindow >= n.TTL {
		return fmt.Errorf("recovery_window (%v) must be shorter than ttl (%v)", n.RecoveryWindow, n.TTL)
	}

	// A live event missed during a listener outage is only recoverable by
	// the next reconciliation pass; ticks further apart than the window
	// leave a blind spot.
	if n.TickInterval > n.RecoveryWindow {
		return fmt.Errorf("tick_interval (%v) must not exceed recovery_window (%v)", n.TickInterval, n.RecoveryWindow)
	}

	return nil
}
