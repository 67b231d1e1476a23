package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

// stubBackend is an in-process stand-in for the stack's REST API.
func stubBackend(t *testing.T) (*Client, *mux.Router) {
	t.Helper()
	r := mux.NewRouter()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return New(srv.URL, 2*time.Second), r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClientConfig(t *testing.T) {
	t.Parallel()

	client, r := stubBackend(t)
	r.HandleFunc("/system/config", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, ConfigDoc{
			ActiveCampaign: "dragon-heist",
			LLMProvider:    "openai",
			AudioRegistry: AudioRegistry{
				DMName:     "Vex",
				Archetypes: []Archetype{{ID: "gruff", Label: "Gruff Dwarf", VoiceID: "v1"}},
			},
		})
	}).Methods(http.MethodGet)

	doc, err := client.Config(context.Background())
	require.NoError(t, err)
	require.Equal(t, "dragon-heist", doc.ActiveCampaign)
	require.Equal(t, "Vex", doc.AudioRegistry.DMName)
	require.Len(t, doc.AudioRegistry.Archetypes, 1)
}

func TestClientAuthStatus(t *testing.T) {
	t.Parallel()

	client, r := stubBackend(t)
	r.HandleFunc("/system/auth/status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, AuthStatus{HasPin: true, Locked: true})
	}).Methods(http.MethodGet)

	st, err := client.AuthStatus(context.Background())
	require.NoError(t, err)
	require.True(t, st.HasPin)
	require.True(t, st.Locked)
}

func TestClientUnlockWrongPin(t *testing.T) {
	t.Parallel()

	client, r := stubBackend(t)
	r.HandleFunc("/system/auth/unlock", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		if body["pin"] != "1234" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid PIN"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "unlocked"})
	}).Methods(http.MethodPost)

	err := client.Unlock(context.Background(), "9999")
	require.ErrorIs(t, err, ErrUnauthorized)
	require.ErrorContains(t, err, "Invalid PIN")

	require.NoError(t, client.Unlock(context.Background(), "1234"))
}

func TestClientDeleteCharacterConflictThenForce(t *testing.T) {
	t.Parallel()

	client, r := stubBackend(t)
	var forced bool
	r.HandleFunc("/game/characters/{id}", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Query().Get("force") != "1" {
			writeJSON(w, http.StatusConflict, map[string]string{"detail": "referenced by campaign content"})
			return
		}
		forced = true
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}).Methods(http.MethodDelete)

	err := client.DeleteCharacter(context.Background(), "hero-1", false)
	require.ErrorIs(t, err, ErrConflict)
	require.False(t, forced)

	require.NoError(t, client.DeleteCharacter(context.Background(), "hero-1", true))
	require.True(t, forced)
}

func TestClientSaveAudioSendsDocument(t *testing.T) {
	t.Parallel()

	client, r := stubBackend(t)
	var got AudioRegistry
	r.HandleFunc("/system/audio/save", func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
	}).Methods(http.MethodPost)

	reg := AudioRegistry{
		DMName:      "Vex",
		DMVoice:     "v2",
		Soundscapes: []Soundscape{{ID: "combat", Label: "Combat", TrackID: "t9"}},
	}
	require.NoError(t, client.SaveAudio(context.Background(), reg))
	require.Equal(t, reg, got)
}

func TestClientEnvRoundTrip(t *testing.T) {
	t.Parallel()

	client, r := stubBackend(t)
	vars := map[string]string{"OPENAI_API_KEY": "sk-test"}

	r.HandleFunc("/system/env/all", func(w http.ResponseWriter, _ *http.Request) {
		var out []EnvVar
		for k, v := range vars {
			out = append(out, EnvVar{Key: k, Value: v})
		}
		writeJSON(w, http.StatusOK, out)
	}).Methods(http.MethodGet)
	r.HandleFunc("/system/env", func(w http.ResponseWriter, req *http.Request) {
		var v EnvVar
		require.NoError(t, json.NewDecoder(req.Body).Decode(&v))
		vars[v.Key] = v.Value
		writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
	}).Methods(http.MethodPost)
	r.HandleFunc("/system/env/{key}", func(w http.ResponseWriter, req *http.Request) {
		delete(vars, mux.Vars(req)["key"])
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}).Methods(http.MethodDelete)

	require.NoError(t, client.SetEnv(context.Background(), "ELEVEN_KEY", "xyz"))
	require.Equal(t, "xyz", vars["ELEVEN_KEY"])

	all, err := client.EnvAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.NoError(t, client.DeleteEnv(context.Background(), "ELEVEN_KEY"))
	_, ok := vars["ELEVEN_KEY"]
	require.False(t, ok)
}

func TestClientServiceLogsPlainText(t *testing.T) {
	t.Parallel()

	client, r := stubBackend(t)
	r.HandleFunc("/system/control/logs/{svc}", func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "brain", mux.Vars(req)["svc"])
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("line one\nline two\n"))
	}).Methods(http.MethodGet)

	text, err := client.ServiceLogs(context.Background(), "brain")
	require.NoError(t, err)
	require.Equal(t, "line one\nline two\n", text)
}

func TestClientErrorDetailFallback(t *testing.T) {
	t.Parallel()

	client, r := stubBackend(t)
	r.HandleFunc("/system/config", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("something broke"))
	}).Methods(http.MethodGet)

	_, err := client.Config(context.Background())
	require.Error(t, err)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusInternalServerError, se.Code)
	require.Contains(t, se.Detail, "something broke")
}
