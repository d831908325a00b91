package logger

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sukalov/songquiz/internal/utils"
)

var (
	ChannelID int64
	once      sync.Once
	log       = newLogrus()
)

type BotClient interface {
	SendMessage(chatID int64, text string) error
}

func newLogrus() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.SetLevel(logrus.InfoLevel)
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		l.SetLevel(lvl)
	}
	return l
}

// Init forwards error-level log lines to the Telegram channel named by LOG_CHANNEL_ID.
func Init(client BotClient) error {
	var initErr error
	once.Do(func() {
		env, err := utils.LoadEnv([]string{"LOG_CHANNEL_ID"})
		if err != nil {
			initErr = fmt.Errorf("failed to load LOG_CHANNEL_ID: %w", err)
			return
		}

		ChannelID, err = strconv.ParseInt(env["LOG_CHANNEL_ID"], 10, 64)
		if err != nil {
			initErr = fmt.Errorf("failed to parse LOG_CHANNEL_ID: %w", err)
			return
		}

		log.AddHook(&channelHook{client: client, chatID: ChannelID})
	})

	return initErr
}

// SetOutput redirects all log output, used by the CLI and tests.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// SetLevel changes the minimum level that gets written.
func SetLevel(level logrus.Level) {
	log.SetLevel(level)
}

// WithFields returns an entry carrying structured fields, e.g. a request ID.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return log.WithFields(fields)
}

func Info(message string) {
	log.Info(message)
}

func Error(message string) {
	log.Error(message)
}

func Debug(message string) {
	log.Debug(message)
}

func Warn(message string) {
	log.Warn(message)
}

func Success(message string) {
	log.WithField("status", "success").Info(message)
}

func LogWithErr(message string, err error) error {
	if err == nil {
		Info(message)
		return nil
	}

	log.WithError(err).Error(message)

	return fmt.Errorf("%s: %w", message, err)
}

// channelHook mirrors error entries into a Telegram chat.
type channelHook struct {
	client BotClient
	chatID int64
}

func (h *channelHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}
}

func (h *channelHook) Fire(entry *logrus.Entry) error {
	if h.client == nil {
		return nil
	}

	timestamp := entry.Time.Format("2006-01-02 15:04:05")
	if entry.Time.IsZero() {
		timestamp = time.Now().Format("2006-01-02 15:04:05")
	}
	logMessage := fmt.Sprintf("[%s] ❌ %s\n%s", timestamp, entry.Level.String(), entry.Message)
	if err, ok := entry.Data[logrus.ErrorKey]; ok {
		logMessage += fmt.Sprintf("\nError: %v", err)
	}

	go func() {
		if err := h.client.SendMessage(h.chatID, logMessage); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to send log to channel: %v\nLog was: %s\n", err, logMessage)
		}
	}()
	return nil
}
