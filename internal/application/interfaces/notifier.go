package interfaces

import "context"

// Notifier delivers best-effort text messages. Implementations must
// never block the caller on delivery and must swallow delivery errors;
// the core's correctness cannot depend on them.
type Notifier interface {
	NotifyUser(ctx context.Context, userID int64, text string)
	NotifyPayoutChannel(ctx context.Context, text string)
}
