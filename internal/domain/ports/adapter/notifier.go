package adapter

import "context"

// AdminNotifier delivers operational alerts (quota thresholds etc.) to
// the administrators, whatever the transport.
type AdminNotifier interface {
	NotifyAdmins(ctx context.Context, text string) error
}
