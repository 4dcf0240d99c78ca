// Package telegram implements the moderation.ChatPlatform capability over
// the Telegram Bot API.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

type Client struct {
	Logger *slog.Logger
	// https://api.telegram.org by default
	APIHost string
	Token   string

	httpClient *http.Client

	lk    sync.Mutex
	botID int64
}

func NewClient(logger *slog.Logger, token string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.HTTPClient.Timeout = 15 * time.Second
	rc.Logger = nil
	return &Client{
		Logger:     logger.With("component", "telegram"),
		APIHost:    "https://api.telegram.org",
		Token:      token,
		httpClient: rc.StandardClient(),
	}
}

type apiResponse struct {
	Ok          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (c *Client) call(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	u := fmt.Sprintf("%s/bot%s/%s", c.APIHost, c.Token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = params.Encode()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", method, err)
	}
	var out apiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", method, err)
	}
	if !out.Ok {
		return nil, fmt.Errorf("%s rejected: %s", method, out.Description)
	}
	return out.Result, nil
}

func (c *Client) BanMember(ctx context.Context, chatID, userID int64, until time.Time) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("user_id", strconv.FormatInt(userID, 10))
	if !until.IsZero() {
		params.Set("until_date", strconv.FormatInt(until.Unix(), 10))
	}
	_, err := c.call(ctx, "banChatMember", params)
	return err
}

func (c *Client) UnbanMember(ctx context.Context, chatID, userID int64) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("user_id", strconv.FormatInt(userID, 10))
	// do not re-kick members who are currently in the chat
	params.Set("only_if_banned", "true")
	_, err := c.call(ctx, "unbanChatMember", params)
	return err
}

func (c *Client) RestrictMember(ctx context.Context, chatID, userID int64, until time.Time) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("user_id", strconv.FormatInt(userID, 10))
	params.Set("permissions", `{"can_send_messages":false}`)
	if !until.IsZero() {
		params.Set("until_date", strconv.FormatInt(until.Unix(), 10))
	}
	_, err := c.call(ctx, "restrictChatMember", params)
	return err
}

func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("message_id", strconv.FormatInt(messageID, 10))
	_, err := c.call(ctx, "deleteMessage", params)
	return err
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("text", text)
	_, err := c.call(ctx, "sendMessage", params)
	return err
}

type chatMember struct {
	Status          string `json:"status"`
	CanRestrict     bool   `json:"can_restrict_members"`
	CanDeleteMsgs   bool   `json:"can_delete_messages"`
	CanManageChat   bool   `json:"can_manage_chat"`
	IsAnonymousBool bool   `json:"is_anonymous"`
}

func (c *Client) selfID(ctx context.Context) (int64, error) {
	c.lk.Lock()
	defer c.lk.Unlock()
	if c.botID != 0 {
		return c.botID, nil
	}
	me, err := c.call(ctx, "getMe", url.Values{})
	if err != nil {
		return 0, err
	}
	var meOut struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(me, &meOut); err != nil {
		return 0, err
	}
	c.botID = meOut.ID
	return c.botID, nil
}

// Checks whether the bot is an admin with the permissions moderation needs.
func (c *Client) CanModerate(ctx context.Context, chatID int64) (bool, error) {
	botID, err := c.selfID(ctx)
	if err != nil {
		return false, err
	}

	params := url.Values{}
	params.Set("chat_id", strconv.FormatInt(chatID, 10))
	params.Set("user_id", strconv.FormatInt(botID, 10))
	raw, err := c.call(ctx, "getChatMember", params)
	if err != nil {
		return false, err
	}
	var member chatMember
	if err := json.Unmarshal(raw, &member); err != nil {
		return false, err
	}
	if member.Status != "administrator" && member.Status != "creator" {
		return false, nil
	}
	return member.CanRestrict && member.CanDeleteMsgs, nil
}
