package notification

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(_ context.Context, payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func testOptions() *webpush.Options {
	return &webpush.Options{VAPIDPublicKey: "pub", VAPIDPrivateKey: "priv", Subscriber: "mailto:a@b.c", TTL: 60}
}

func emptyResponse(code int) *http.Response {
	return &http.Response{StatusCode: code, Body: io.NopCloser(bytes.NewBufferString(""))}
}

func TestWebPushChannel_Enabled(t *testing.T) {
	gormDB, _ := newTestDB(t)
	assert.True(t, NewWebPushChannel(gormDB, testOptions()).Enabled())
	assert.False(t, NewWebPushChannel(gormDB, &webpush.Options{}).Enabled())
	assert.False(t, NewWebPushChannel(nil, testOptions()).Enabled())
}

func TestWebPushChannel_SendsToSubscriptions(t *testing.T) {
	gormDB, mock := newTestDB(t)
	ch := NewWebPushChannel(gormDB, testOptions())

	var endpoints []string
	ch.SetSender(&mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			endpoints = append(endpoints, sub.Endpoint)
			assert.Contains(t, string(payload), "ALERTA: Ana")
			assert.Equal(t, "pub", options.VAPIDPublicKey)
			return emptyResponse(http.StatusCreated), nil
		},
	})

	mock.ExpectQuery(`SELECT \* FROM "push_subscriptions"`).
		WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
			AddRow("https://example.com/push/1", "k1", "a1", time.Now()).
			AddRow("https://example.com/push/2", "k2", "a2", time.Now()))

	require.NoError(t, ch.Send(context.Background(), sampleMessage()))
	assert.Equal(t, []string{"https://example.com/push/1", "https://example.com/push/2"}, endpoints)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebPushChannel_DeletesExpiredSubscription(t *testing.T) {
	gormDB, mock := newTestDB(t)
	ch := NewWebPushChannel(gormDB, testOptions())
	ch.SetSender(&mockSender{
		SendFunc: func([]byte, *webpush.Subscription, *webpush.Options) (*http.Response, error) {
			return emptyResponse(http.StatusGone), nil
		},
	})

	mock.ExpectQuery(`SELECT \* FROM "push_subscriptions"`).
		WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
			AddRow("https://example.com/expired", "k", "a", time.Now()))
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE "push_subscriptions"."endpoint" = \$1`).
		WithArgs("https://example.com/expired").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, ch.Send(context.Background(), sampleMessage()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebPushChannel_ReportsFailures(t *testing.T) {
	gormDB, mock := newTestDB(t)
	ch := NewWebPushChannel(gormDB, testOptions())
	ch.SetSender(&mockSender{
		SendFunc: func([]byte, *webpush.Subscription, *webpush.Options) (*http.Response, error) {
			return emptyResponse(http.StatusInternalServerError), nil
		},
	})

	mock.ExpectQuery(`SELECT \* FROM "push_subscriptions"`).
		WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
			AddRow("https://example.com/broken", "k", "a", time.Now()))

	err := ch.Send(context.Background(), sampleMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestWebPushChannel_NoSubscriptions(t *testing.T) {
	gormDB, mock := newTestDB(t)
	ch := NewWebPushChannel(gormDB, testOptions())
	ch.SetSender(&mockSender{
		SendFunc: func([]byte, *webpush.Subscription, *webpush.Options) (*http.Response, error) {
			t.Fatal("sender must not be called")
			return nil, nil
		},
	})

	mock.ExpectQuery(`SELECT \* FROM "push_subscriptions"`).
		WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}))

	assert.NoError(t, ch.Send(context.Background(), sampleMessage()))
}
