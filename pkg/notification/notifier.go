package notification

// NotificationSystem represents a delivery channel (email, sms).
type NotificationSystem string

// NoticeType identifies a kind of notice (e.g. verification code email).
type NoticeType string

const (
	EmailSystem NotificationSystem = "email"
	// SMSSystem is reserved; no SMS notifier is wired.
	SMSSystem NotificationSystem = "sms"
)

// NotificationData carries the recipient and template data for one send.
type NotificationData struct {
	To   string            // Recipient identifier (email address)
	Data map[string]string // Template variables
}

// NoticeTemplate holds the subject and bodies registered for a notice.
type NoticeTemplate struct {
	Subject string
	Text    string
	Html    string
}

// Notifier delivers one rendered notice over a single channel. Transport
// failures must be returned, never swallowed.
type Notifier interface {
	Send(noticeType NoticeType, notification NotificationData, template NoticeTemplate) error
}
