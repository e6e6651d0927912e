package notification

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationManager(t *testing.T) {
	const verificationNotice NoticeType = "verification_code"

	t.Run("SendWithRegisteredTemplate", func(t *testing.T) {
		nm := NewNotificationManager()
		mock := &MockNotifier{}
		nm.RegisterNotifier(EmailSystem, mock)

		err := nm.RegisterNotification(verificationNotice, EmailSystem, NoticeTemplate{
			Subject: "Your code",
			Text:    "Code: {{.Code}}",
		})
		require.NoError(t, err)

		err = nm.Send(verificationNotice, EmailSystem, NotificationData{
			To:   "member@coop.example",
			Data: map[string]string{"Code": "123456"},
		})
		require.NoError(t, err)
		require.Len(t, mock.SentNotifications, 1)
		assert.Equal(t, "member@coop.example", mock.SentNotifications[0].To)
	})

	t.Run("UnregisteredNoticeType", func(t *testing.T) {
		nm := NewNotificationManager()
		nm.RegisterNotifier(EmailSystem, &MockNotifier{})

		err := nm.Send("unknown", EmailSystem, NotificationData{To: "a@b.c"})
		assert.Error(t, err)
	})

	t.Run("MissingNotifier", func(t *testing.T) {
		nm := NewNotificationManager()
		require.NoError(t, nm.RegisterNotification(verificationNotice, EmailSystem, NoticeTemplate{Subject: "s"}))

		err := nm.Send(verificationNotice, EmailSystem, NotificationData{To: "a@b.c"})
		assert.Error(t, err)
	})

	t.Run("TransportErrorPropagates", func(t *testing.T) {
		nm := NewNotificationManager()
		transportErr := errors.New("smtp: connection refused")
		nm.RegisterNotifier(EmailSystem, &MockNotifier{Err: transportErr})
		require.NoError(t, nm.RegisterNotification(verificationNotice, EmailSystem, NoticeTemplate{Subject: "s"}))

		err := nm.Send(verificationNotice, EmailSystem, NotificationData{To: "a@b.c"})
		assert.ErrorIs(t, err, transportErr)
	})

	t.Run("EmptyTemplateRejected", func(t *testing.T) {
		nm := NewNotificationManager()
		err := nm.RegisterNotification(verificationNotice, EmailSystem, NoticeTemplate{})
		assert.Error(t, err)
	})
}
