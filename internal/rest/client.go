// Package rest is the client for the CareNest backend API. It covers the
// endpoints both dashboards consume: listing and mutating medications, the
// best-effort SOS notification, and the session endpoints.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/KrPrince19/CareNest/internal/model"
)

// Client talks to the backend over HTTP. It deliberately imposes no request
// timeout; callers cancel via context, and the sync loops treat late or failed
// responses as a stale-snapshot condition rather than an error to surface.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func NewClient(baseURL string) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{}}
}

// SetToken attaches a bearer token to subsequent mutating requests.
func (c *Client) SetToken(token string) { c.token = token }

// Credentials is what a successful login returns.
type Credentials struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Medicines fetches the medication records owned by email.
func (c *Client) Medicines(ctx context.Context, email string) ([]model.Medication, error) {
	endpoint := fmt.Sprintf("%s/medicines?email=%s", c.baseURL, url.QueryEscape(email))
	var meds []model.Medication
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &meds); err != nil {
		return nil, fmt.Errorf("fetch medicines: %w", err)
	}
	return meds, nil
}

// TakeMedicine confirms a locally applied "taken" mutation with the backend.
func (c *Client) TakeMedicine(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("%s/medicines/%s", c.baseURL, url.PathEscape(id))
	body := map[string]string{"status": string(model.DoseTaken)}
	if err := c.do(ctx, http.MethodPatch, endpoint, body, nil); err != nil {
		return fmt.Errorf("confirm take medicine: %w", err)
	}
	return nil
}

// CreateMedicine adds a new medication record for an elder.
func (c *Client) CreateMedicine(ctx context.Context, med model.Medication) error {
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/medicines", med, nil); err != nil {
		return fmt.Errorf("create medicine: %w", err)
	}
	return nil
}

// SendSOS triggers the out-of-band emergency notification. This path is
// best-effort: the shared alert record remains the authoritative channel.
func (c *Client) SendSOS(ctx context.Context, senderName string) error {
	body := map[string]string{"senderName": senderName}
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/send-sos", body, nil); err != nil {
		return fmt.Errorf("send sos notification: %w", err)
	}
	return nil
}

// Login authenticates against the session collaborator.
func (c *Client) Login(ctx context.Context, email, password string, role model.Role) (Credentials, error) {
	body := map[string]string{"email": email, "password": password, "role": string(role)}
	var creds Credentials
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/login", body, &creds); err != nil {
		return Credentials{}, fmt.Errorf("login: %w", err)
	}
	return creds, nil
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, name, email, password string, role model.Role) error {
	body := map[string]string{"name": name, "email": email, "password": password, "role": string(role)}
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/signup", body, nil); err != nil {
		return fmt.Errorf("signup: %w", err)
	}
	return nil
}

// ResetPassword performs the direct password reset the forgot-password flow uses.
func (c *Client) ResetPassword(ctx context.Context, email, newPassword string) error {
	body := map[string]string{"email": email, "newPassword": newPassword}
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/reset-password-direct", body, nil); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// apiError surfaces the backend's {"error": "..."} body when present.
func apiError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload); err == nil && payload.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}
