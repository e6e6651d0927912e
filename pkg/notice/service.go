package notice

import (
	"embed"
	"log/slog"

	"github.com/taxicoop/coopadmin/pkg/notification"
)

// Notice types registered with the notification manager.
const (
	VerificationCodeNotice  notification.NoticeType = "verification_code"
	PasswordResetCodeNotice notification.NoticeType = "password_reset_code"
)

//go:embed templates/*
var templateFiles embed.FS

func loadTemplate(filename string) string {
	content, err := templateFiles.ReadFile(filename)
	if err != nil {
		slog.Error("Error reading template file!", "err", err, "filename", filename)
		return ""
	}
	return string(content)
}

// NewNotificationManager creates a notification manager with the SMTP
// notifier and the cooperative's email templates registered.
func NewNotificationManager(smtpConfig notification.SMTPConfig) (*notification.NotificationManager, error) {
	notificationManager := notification.NewNotificationManager()

	emailNotifier, err := notification.NewEmailNotifier(smtpConfig)
	if err != nil {
		return nil, err
	}

	notificationManager.RegisterNotifier(notification.EmailSystem, emailNotifier)

	err = notificationManager.RegisterNotification(VerificationCodeNotice, notification.EmailSystem, notification.NoticeTemplate{
		Subject: "Email verification - Taxi Cooperative",
		Text:    loadTemplate("templates/email/verification_code.tmpl"),
	})
	if err != nil {
		return nil, err
	}

	err = notificationManager.RegisterNotification(PasswordResetCodeNotice, notification.EmailSystem, notification.NoticeTemplate{
		Subject: "Password recovery - Taxi Cooperative",
		Text:    loadTemplate("templates/email/password_reset_code.tmpl"),
	})
	if err != nil {
		return nil, err
	}

	return notificationManager, nil
}
