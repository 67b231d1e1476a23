package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Sentinel errors the view layer branches on.
var (
	// ErrUnauthorized is returned when the backend rejects a credential check.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict is returned when a delete targets a resource that is still
	// referenced elsewhere; callers should offer an explicit force retry.
	ErrConflict = errors.New("conflict")
)

// StatusError carries a non-2xx response with the backend's detail message.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned %d", e.Code)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Code, e.Detail)
}

// Unwrap maps well-known status codes onto sentinel errors.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusConflict:
		return ErrConflict
	}
	return nil
}

// Client is a typed client for the stack's REST backend.
type Client struct {
	base string
	http *http.Client
}

// New builds a client for the given base URL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// Ping probes backend liveness.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/", nil, nil)
}

// Config fetches the system configuration document.
func (c *Client) Config(ctx context.Context) (ConfigDoc, error) {
	var doc ConfigDoc
	err := c.do(ctx, http.MethodGet, "/system/config", nil, &doc)
	return doc, err
}

// AuthStatus fetches the PIN lock state.
func (c *Client) AuthStatus(ctx context.Context) (AuthStatus, error) {
	var st AuthStatus
	err := c.do(ctx, http.MethodGet, "/system/auth/status", nil, &st)
	return st, err
}

// Lock asks the backend to lock the session. Best effort; the caller has
// already transitioned optimistically.
func (c *Client) Lock(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/system/auth/lock", nil, nil)
}

// Unlock submits a PIN. A wrong PIN yields ErrUnauthorized.
func (c *Client) Unlock(ctx context.Context, pin string) error {
	body := map[string]string{"pin": pin}
	return c.do(ctx, http.MethodPost, "/system/auth/unlock", body, nil)
}

// SaveAudio persists the audio registry document.
func (c *Client) SaveAudio(ctx context.Context, reg AudioRegistry) error {
	return c.do(ctx, http.MethodPost, "/system/audio/save", reg, nil)
}

// Voices lists selectable synth voices.
func (c *Client) Voices(ctx context.Context) ([]Voice, error) {
	var out []Voice
	err := c.do(ctx, http.MethodGet, "/system/audio/voices", nil, &out)
	return out, err
}

// Tracks lists selectable audio tracks.
func (c *Client) Tracks(ctx context.Context) ([]Track, error) {
	var out []Track
	err := c.do(ctx, http.MethodGet, "/system/audio/tracks", nil, &out)
	return out, err
}

// EnvAll lists backend environment variables.
func (c *Client) EnvAll(ctx context.Context) ([]EnvVar, error) {
	var out []EnvVar
	err := c.do(ctx, http.MethodGet, "/system/env/all", nil, &out)
	return out, err
}

// SetEnv creates or updates one environment variable.
func (c *Client) SetEnv(ctx context.Context, key, value string) error {
	return c.do(ctx, http.MethodPost, "/system/env", EnvVar{Key: key, Value: value}, nil)
}

// DeleteEnv removes one environment variable.
func (c *Client) DeleteEnv(ctx context.Context, key string) error {
	return c.do(ctx, http.MethodDelete, "/system/env/"+url.PathEscape(key), nil, nil)
}

// Characters lists the roster for the active campaign.
func (c *Client) Characters(ctx context.Context) ([]Character, error) {
	var out []Character
	err := c.do(ctx, http.MethodGet, "/game/characters", nil, &out)
	return out, err
}

// Character fetches a single sheet.
func (c *Client) Character(ctx context.Context, id string) (Character, error) {
	var out Character
	err := c.do(ctx, http.MethodGet, "/game/characters/"+url.PathEscape(id), nil, &out)
	return out, err
}

// SaveCharacter persists a full sheet.
func (c *Client) SaveCharacter(ctx context.Context, ch Character) error {
	return c.do(ctx, http.MethodPut, "/game/characters/"+url.PathEscape(ch.ID), ch, nil)
}

// CreateCharacter adds a sheet to the roster.
func (c *Client) CreateCharacter(ctx context.Context, ch Character) (Character, error) {
	var out Character
	err := c.do(ctx, http.MethodPost, "/game/characters", ch, &out)
	return out, err
}

// DeleteCharacter removes a sheet. A sheet referenced by campaign content
// yields ErrConflict unless force is set.
func (c *Client) DeleteCharacter(ctx context.Context, id string, force bool) error {
	path := "/game/characters/" + url.PathEscape(id)
	if force {
		path += "?force=1"
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// Campaigns lists the campaign library.
func (c *Client) Campaigns(ctx context.Context) ([]Campaign, error) {
	var out []Campaign
	err := c.do(ctx, http.MethodGet, "/system/campaigns", nil, &out)
	return out, err
}

// ActivateCampaign switches the active campaign.
func (c *Client) ActivateCampaign(ctx context.Context, id string) error {
	body := map[string]string{"campaign_id": id}
	return c.do(ctx, http.MethodPost, "/system/campaigns/activate", body, nil)
}

// DeleteCampaign removes a campaign cartridge.
func (c *Client) DeleteCampaign(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/system/campaigns/"+url.PathEscape(id), nil, nil)
}

// Services lists the stack services and their run state.
func (c *Client) Services(ctx context.Context) ([]ServiceStatus, error) {
	var out []ServiceStatus
	err := c.do(ctx, http.MethodGet, "/system/control/status", nil, &out)
	return out, err
}

// RestartService triggers a container restart for one stack service.
func (c *Client) RestartService(ctx context.Context, svc string) error {
	return c.do(ctx, http.MethodPost, "/system/control/restart/"+url.PathEscape(svc), nil, nil)
}

// ServiceLogs fetches the plain-text log tail for one stack service.
func (c *Client) ServiceLogs(ctx context.Context, svc string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/system/control/logs/"+url.PathEscape(svc), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("logs %s: %w", svc, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("logs %s: %w", svc, err)
	}
	return string(data), nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}
	if out == nil {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	detail := ""
	var payload struct {
		Detail string `json:"detail"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(data, &payload) == nil {
		detail = payload.Detail
	}
	if detail == "" {
		detail = strings.TrimSpace(string(data))
	}
	return &StatusError{Code: resp.StatusCode, Detail: detail}
}
