package logger

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestAlertCore_SendsOnlyFlaggedErrors(t *testing.T) {
	received := make(chan AlertMessage, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg AlertMessage
		_ = json.NewDecoder(r.Body).Decode(&msg)
		received <- msg
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	base := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(io.Discard), zapcore.DebugLevel)
	core := WithWebhookAlert(srv.URL, time.Second)(base)
	log := &Logger{zap.New(core)}

	log.Error("not flagged")
	log.Warn("flagged but too low", AlertField())
	log.Error("no usable signals", AlertField(), StringField("ticker", "AAPL"))

	select {
	case msg := <-received:
		assert.Equal(t, "no usable signals", msg.Message)
		assert.Equal(t, "error", msg.Level)
		assert.Equal(t, "AAPL", msg.Fields["ticker"])
		_, hasFlag := msg.Fields["send_alert"]
		assert.False(t, hasFlag)
	case <-time.After(2 * time.Second):
		t.Fatal("alert was not delivered")
	}

	select {
	case msg := <-received:
		t.Fatalf("unexpected alert: %s", msg.Message)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWithWebhookAlert_EmptyURLKeepsCore(t *testing.T) {
	base := zapcore.NewNopCore()
	got := WithWebhookAlert("", time.Second)(base)
	_, isAlert := got.(*AlertCore)
	require.False(t, isAlert)
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("loud", "json")
	assert.Error(t, err)
}
