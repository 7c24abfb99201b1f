package logger

import (
	"context"
	"fmt"
	"time"

	"ai-hedge-fund/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AlertField marks an entry so AlertCore forwards it to the webhook.
func AlertField() zap.Field {
	return zap.Bool(common.KEY_LOG_HOOK_SEND_ALERT, true)
}

// AlertMessage is the JSON body posted to the webhook. The "text" key is understood by
// Slack and most chat incoming-webhooks.
type AlertMessage struct {
	Text    string                 `json:"text"`
	Level   string                 `json:"level"`
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields"`
	Time    time.Time              `json:"time"`
}

// AlertCore tees flagged entries at or above minLevel to a webhook.
type AlertCore struct {
	zapcore.Core
	client   *resty.Client
	url      string
	minLevel zapcore.Level
	fields   []zapcore.Field
}

// WithWebhookAlert returns an Option installing an AlertCore. An empty url disables it.
func WithWebhookAlert(url string, timeout time.Duration) Option {
	return func(core zapcore.Core) zapcore.Core {
		if url == "" {
			return core
		}
		return &AlertCore{
			Core:     core,
			client:   resty.New().SetTimeout(timeout),
			url:      url,
			minLevel: zapcore.ErrorLevel,
		}
	}
}

func (a *AlertCore) With(fields []zapcore.Field) zapcore.Core {
	return &AlertCore{
		Core:     a.Core.With(fields),
		client:   a.client,
		url:      a.url,
		minLevel: a.minLevel,
		fields:   append(append([]zapcore.Field{}, a.fields...), fields...),
	}
}

func (a *AlertCore) Check(entry zapcore.Entry, checkedEntry *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if a.Enabled(entry.Level) {
		return checkedEntry.AddCore(entry, a)
	}
	return checkedEntry
}

func (a *AlertCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if entry.Level >= a.minLevel && hasAlertFlag(fields) {
		all := append(append([]zapcore.Field{}, a.fields...), fields...)
		msg := buildAlertMessage(entry, all)
		go a.send(msg)
	}
	return a.Core.Write(entry, fields)
}

func hasAlertFlag(fields []zapcore.Field) bool {
	for _, f := range fields {
		if f.Key == common.KEY_LOG_HOOK_SEND_ALERT && f.Type == zapcore.BoolType && f.Integer == 1 {
			return true
		}
	}
	return false
}

func buildAlertMessage(entry zapcore.Entry, fields []zapcore.Field) AlertMessage {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		if f.Key == common.KEY_LOG_HOOK_SEND_ALERT {
			continue
		}
		f.AddTo(enc)
	}

	return AlertMessage{
		Text:    fmt.Sprintf("[%s] %s", entry.Level.CapitalString(), entry.Message),
		Level:   entry.Level.String(),
		Message: entry.Message,
		Fields:  enc.Fields,
		Time:    entry.Time,
	}
}

func (a *AlertCore) send(msg AlertMessage) {
	// Fire and forget; a failing webhook must not recurse into the logger.
	_, _ = a.client.R().
		SetContext(context.Background()).
		SetHeader("Content-Type", "application/json").
		SetBody(msg).
		Post(a.url)
}
