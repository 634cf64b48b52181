package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(ctx context.Context, command string) string

// telegramUpdate represents a Telegram update from long polling.
type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// pollOnce fetches one batch of updates starting at offset, runs the handler
// for each command and returns the next offset.
func (t *TelegramNotifier) pollOnce(ctx context.Context, client *http.Client, offset int, timeout int, handler CommandHandler) (int, error) {
	apiURL := fmt.Sprintf("%s?offset=%d&timeout=%d", t.endpoint("getUpdates"), offset, timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return offset, fmt.Errorf("create polling request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return offset, fmt.Errorf("polling request: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return offset, fmt.Errorf("read polling response: %w", err)
	}

	var result struct {
		OK     bool             `json:"ok"`
		Result []telegramUpdate `json:"result"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return offset, fmt.Errorf("decode polling response: %w", err)
	}
	if !result.OK {
		return offset, fmt.Errorf("getUpdates not ok: %s", string(body))
	}

	for _, update := range result.Result {
		offset = update.UpdateID + 1
		if update.Message == nil || update.Message.Text == "" {
			continue
		}
		text := strings.TrimSpace(update.Message.Text)
		t.Logger.Info().Str("command", text).Int64("chat", update.Message.Chat.ID).Msg("received command")
		reply := handler(ctx, text)
		if reply != "" {
			if err := t.Send(ctx, reply); err != nil {
				t.Logger.Error().Err(err).Msg("send reply")
			}
		}
	}
	return offset, nil
}

// StartPolling begins long-polling for Telegram commands. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	offset := 0
	client := &http.Client{Timeout: 35 * time.Second, Transport: t.Client.Transport}

	for {
		select {
		case <-ctx.Done():
			t.Logger.Info().Msg("telegram polling stopped")
			return
		default:
		}

		next, err := t.pollOnce(ctx, client, offset, 30, handler)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			t.Logger.Warn().Err(err).Msg("polling failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}
		offset = next
	}
}
