package entities

type ChannelType string

const (
	ChannelPayouts ChannelType = "PAYOUTS"
	ChannelAlerts  ChannelType = "ALERTS"
)

// Channel is an administrative Telegram chat used for outbound
// notifications.
type Channel struct {
	ID       int64
	ChatID   int64
	Type     ChannelType
	Title    string
	IsActive bool
}
