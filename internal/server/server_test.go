package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KrPrince19/CareNest/internal/config"
	"github.com/KrPrince19/CareNest/internal/model"
	"github.com/KrPrince19/CareNest/internal/push"
	"github.com/KrPrince19/CareNest/internal/repository"
	"github.com/KrPrince19/CareNest/internal/server"
	"github.com/KrPrince19/CareNest/internal/testutil"
)

type fixture struct {
	srv   *server.Server
	repo  *repository.MemoryRepository
	bus   *push.Hub
	clock *testutil.Clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := config.NewConfig()
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenTTL = time.Hour

	repo := repository.NewMemoryRepository()
	bus := push.NewHub()
	clock := testutil.NewClock(time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &fixture{
		srv:   server.New(cfg, repo, bus, clock, logger),
		repo:  repo,
		bus:   bus,
		clock: clock,
	}
}

func (f *fixture) request(t *testing.T, method, target, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.srv.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()
	return out
}

// signup+login an elder, returning the token and user.
func (f *fixture) loginElder(t *testing.T) (string, model.User) {
	t.Helper()

	resp := f.request(t, http.MethodPost, "/signup", "", map[string]string{
		"name": "Dad", "email": "dad@example.com", "password": "Secret123!", "role": "elder",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = f.request(t, http.MethodPost, "/login", "", map[string]string{
		"email": "dad@example.com", "password": "Secret123!", "role": "elder",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	creds := decode[struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}](t, resp)
	require.NotEmpty(t, creds.Token)
	return creds.Token, creds.User
}

func TestSignupRejectsWeakPassword(t *testing.T) {
	f := newFixture(t)

	resp := f.request(t, http.MethodPost, "/signup", "", map[string]string{
		"name": "Dad", "email": "dad@example.com", "password": "weakpass", "role": "elder",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestSignupDuplicateEmailAndRole(t *testing.T) {
	f := newFixture(t)
	f.loginElder(t)

	resp := f.request(t, http.MethodPost, "/signup", "", map[string]string{
		"name": "Dad", "email": "dad@example.com", "password": "Secret123!", "role": "elder",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Same email under the other role is a distinct account.
	resp = f.request(t, http.MethodPost, "/signup", "", map[string]string{
		"name": "Kid", "email": "dad@example.com", "password": "Secret123!", "role": "family",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)
	f.loginElder(t)

	resp := f.request(t, http.MethodPost, "/login", "", map[string]string{
		"email": "dad@example.com", "password": "Wrong123!", "role": "elder",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestResetPasswordDirect(t *testing.T) {
	f := newFixture(t)
	f.loginElder(t)

	resp := f.request(t, http.MethodPost, "/reset-password-direct", "", map[string]string{
		"email": "dad@example.com", "newPassword": "Changed456#",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.request(t, http.MethodPost, "/login", "", map[string]string{
		"email": "dad@example.com", "password": "Changed456#", "role": "elder",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.request(t, http.MethodPost, "/reset-password-direct", "", map[string]string{
		"email": "nobody@example.com", "newPassword": "Changed456#",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateAndListMedicines(t *testing.T) {
	f := newFixture(t)
	token, _ := f.loginElder(t)

	for _, med := range []map[string]any{
		{"name": "Metformin", "time": "1:00 PM", "dose": "500mg", "stock": 10, "forWhom": "Dad", "userEmail": "dad@example.com"},
		{"name": "Aspirin", "time": "9:00 AM", "dose": "75mg", "stock": 3, "forWhom": "Dad", "userEmail": "dad@example.com"},
	} {
		resp := f.request(t, http.MethodPost, "/medicines", token, med)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := f.request(t, http.MethodGet, "/medicines?email=dad@example.com", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	meds := decode[[]model.Medication](t, resp)
	require.Len(t, meds, 2)
	// Ordered by scheduled time of day.
	assert.Equal(t, "Aspirin", meds[0].Name)
	assert.Equal(t, "Metformin", meds[1].Name)
	assert.Equal(t, model.DoseUntaken, meds[0].Status)
	assert.NotEmpty(t, meds[0].ID)
}

func TestCreateMedicineValidation(t *testing.T) {
	f := newFixture(t)
	token, _ := f.loginElder(t)

	resp := f.request(t, http.MethodPost, "/medicines", token, map[string]any{
		"name": "Aspirin", "time": "25:00", "dose": "75mg", "stock": 3,
		"forWhom": "Dad", "userEmail": "dad@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// No bearer token at all.
	resp = f.request(t, http.MethodPost, "/medicines", "", map[string]any{
		"name": "Aspirin", "time": "9:00 AM", "dose": "75mg", "stock": 3,
		"forWhom": "Dad", "userEmail": "dad@example.com",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestTakeMedicineDecrementsStockOnce(t *testing.T) {
	f := newFixture(t)
	token, _ := f.loginElder(t)

	resp := f.request(t, http.MethodPost, "/medicines", token, map[string]any{
		"name": "Aspirin", "time": "9:00 AM", "dose": "75mg", "stock": 3,
		"forWhom": "Dad", "userEmail": "dad@example.com",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[model.Medication](t, resp)

	resp = f.request(t, http.MethodPatch, "/medicines/"+created.ID, token, map[string]string{"status": "taken"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	med := decode[model.Medication](t, resp)
	assert.Equal(t, model.DoseTaken, med.Status)
	assert.Equal(t, 2, med.Stock)

	// Repeating the confirmation does not decrement again.
	resp = f.request(t, http.MethodPatch, "/medicines/"+created.ID, token, map[string]string{"status": "taken"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	med = decode[model.Medication](t, resp)
	assert.Equal(t, 2, med.Stock)

	resp = f.request(t, http.MethodPatch, "/medicines/missing", token, map[string]string{"status": "taken"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestMutationsPublishRefresh(t *testing.T) {
	f := newFixture(t)
	token, _ := f.loginElder(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := f.bus.Subscribe(ctx)

	resp := f.request(t, http.MethodPost, "/medicines", token, map[string]any{
		"name": "Aspirin", "time": "9:00 AM", "dose": "75mg", "stock": 3,
		"forWhom": "Dad", "userEmail": "dad@example.com",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	select {
	case evt := <-events:
		assert.Equal(t, push.EventRefreshData, evt.Type)
	case <-time.After(time.Second):
		t.Fatal("no refresh event published")
	}
}

func TestSendSOSBroadcastsAlert(t *testing.T) {
	f := newFixture(t)
	token, user := f.loginElder(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := f.bus.Subscribe(ctx)

	resp := f.request(t, http.MethodPost, "/send-sos", token, map[string]string{"senderName": "Dad"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	select {
	case evt := <-events:
		require.Equal(t, push.EventNewSOSAlert, evt.Type)
		require.NotNil(t, evt.Alert)
		assert.Equal(t, user.Email, evt.Alert.OwnerEmail)
		assert.True(t, evt.Alert.Active)
		assert.Equal(t, model.AlertPending, evt.Alert.Status)
		assert.Equal(t, "Emergency Alert from Dad!", evt.Alert.Message)
		assert.Equal(t, f.clock.Now().UnixMilli(), evt.Alert.ID)
	case <-time.After(time.Second):
		t.Fatal("no sos event published")
	}
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)

	resp := f.request(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
