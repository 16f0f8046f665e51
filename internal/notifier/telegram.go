package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultTelegramAPI = "https://api.telegram.org"
	// telegramMessageLimit is the Bot API cap on message length, in runes.
	telegramMessageLimit = 4096
)

// Sink delivers a rendered message.
type Sink interface {
	Send(ctx context.Context, text string) error
}

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	APIBase  string
	Client   *http.Client
	logger   *zap.SugaredLogger
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string, logger *zap.SugaredLogger) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		APIBase:  DefaultTelegramAPI,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		logger: logger,
	}
}

func (t *TelegramNotifier) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.APIBase, t.BotToken, method)
}

// Send sends a message to the configured chat. Messages over the API limit
// are truncated with their open HTML tags closed.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	text = truncateHTML(text, telegramMessageLimit)
	payload := map[string]string{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// truncateHTML cuts text to at most limit runes without splitting a tag or an
// entity, then closes the tags left open at the cut.
func truncateHTML(text string, limit int) string {
	r := []rune(text)
	if len(r) <= limit {
		return text
	}
	cut := limit
	for cut > 0 {
		head := r[:cut]
		if i := lastRune(head, '<'); i > lastRune(head, '>') {
			cut = i
			head = r[:cut]
		}
		if i := lastRune(head, '&'); i >= 0 && i > lastRune(head, ';') {
			cut = i
			head = r[:cut]
		}
		closing := closingTags(string(head))
		if over := cut + len([]rune(closing)) - limit; over > 0 {
			cut -= over
			continue
		}
		return string(head) + closing
	}
	return ""
}

func lastRune(r []rune, c rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] == c {
			return i
		}
	}
	return -1
}

// closingTags returns the end tags for the elements still open in s,
// innermost first.
func closingTags(s string) string {
	var open []string
	for {
		i := strings.IndexByte(s, '<')
		if i < 0 {
			break
		}
		j := strings.IndexByte(s[i:], '>')
		if j < 0 {
			break
		}
		tag := s[i+1 : i+j]
		s = s[i+j+1:]
		if strings.HasPrefix(tag, "/") {
			name := strings.TrimPrefix(tag, "/")
			if n := len(open); n > 0 && open[n-1] == name {
				open = open[:n-1]
			}
			continue
		}
		if f := strings.Fields(tag); len(f) > 0 && !strings.HasSuffix(tag, "/") {
			open = append(open, f[0])
		}
	}
	var b strings.Builder
	for i := len(open) - 1; i >= 0; i-- {
		b.WriteString("</" + open[i] + ">")
	}
	return b.String()
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := t.Send(ctx, text)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		backoff := time.Duration(1<<uint(i)) * time.Second
		t.logger.Warnf("telegram send failed (attempt %d/%d): %v, retrying in %v", i+1, maxRetries+1, err, backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

// LogSink writes messages to the logger; used when Telegram is not configured.
type LogSink struct {
	Logger *zap.SugaredLogger
}

func (s LogSink) Send(_ context.Context, text string) error {
	s.Logger.Infof("report:\n%s", text)
	return nil
}
