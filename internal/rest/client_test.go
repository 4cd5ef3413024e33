package rest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KrPrince19/CareNest/internal/model"
	"github.com/KrPrince19/CareNest/internal/rest"
)

func TestMedicines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/medicines", r.URL.Path)
		assert.Equal(t, "dad@example.com", r.URL.Query().Get("email"))
		json.NewEncoder(w).Encode([]model.Medication{
			{ID: "m1", Name: "Aspirin", Time: "8:30 AM", Dose: "1 tablet", Stock: 10, Status: model.DoseUntaken},
		})
	}))
	defer srv.Close()

	client := rest.NewClient(srv.URL)
	meds, err := client.Medicines(context.Background(), "dad@example.com")
	require.NoError(t, err)
	require.Len(t, meds, 1)
	assert.Equal(t, "Aspirin", meds[0].Name)
	assert.Equal(t, "8:30 AM", meds[0].Time)
}

func TestTakeMedicine(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/medicines/m1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := rest.NewClient(srv.URL)
	require.NoError(t, client.TakeMedicine(context.Background(), "m1"))
	assert.Equal(t, map[string]string{"status": "taken"}, gotBody)
}

func TestLoginReturnsCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/login", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "elder", req["role"])
		json.NewEncoder(w).Encode(rest.Credentials{
			Token: "jwt-token",
			User:  model.User{Name: "Dad", Email: req["email"], Role: model.RoleElder},
		})
	}))
	defer srv.Close()

	client := rest.NewClient(srv.URL)
	creds, err := client.Login(context.Background(), "dad@example.com", "Secret123!", model.RoleElder)
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", creds.Token)
	assert.Equal(t, model.RoleElder, creds.User.Role)
}

func TestServerErrorBodySurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid email or password"})
	}))
	defer srv.Close()

	client := rest.NewClient(srv.URL)
	_, err := client.Login(context.Background(), "dad@example.com", "wrong", model.RoleElder)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid email or password")
}

func TestBearerTokenAttached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer jwt-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := rest.NewClient(srv.URL)
	client.SetToken("jwt-token")
	require.NoError(t, client.CreateMedicine(context.Background(), model.Medication{Name: "Aspirin"}))
}
