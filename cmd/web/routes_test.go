package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AdamBeresnev/bracket-keeper/internal/bracket"
	"github.com/AdamBeresnev/bracket-keeper/internal/live"
	"github.com/AdamBeresnev/bracket-keeper/internal/service"
	"github.com/AdamBeresnev/bracket-keeper/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	kv := store.NewMemoryStore()
	hub := live.NewHub(logger, []string{"*"})

	tournaments := service.NewTournamentService(kv, service.WithLogger(logger), service.WithNotifier(hub))
	settings := service.NewSettingsService(kv, logger)

	srv := httptest.NewServer(newRouter(tournaments, settings, hub, []string{"*"}))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestTournamentFlow(t *testing.T) {
	srv := newTestServer(t)
	api := srv.URL + "/api/tournaments"

	var created bracket.Tournament
	status := doJSON(t, http.MethodPost, api, map[string]any{"name": "Friday Ladder"}, &created)
	require.Equal(t, http.StatusCreated, status)
	tournamentURL := api + "/" + created.ID.String()

	var withPlayers bracket.Tournament
	status = doJSON(t, http.MethodPost, tournamentURL+"/participants", map[string]any{"names": "Ana\nBruno\nCarla"}, &withPlayers)
	require.Equal(t, http.StatusCreated, status)
	require.Len(t, withPlayers.Participants, 3)

	var view service.BracketView
	status = doJSON(t, http.MethodPost, tournamentURL+"/bracket", nil, &view)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, view.Rounds, 2)
	require.Len(t, view.Rounds[0].Matches, 2)

	status = doJSON(t, http.MethodPost, tournamentURL+"/bracket", map[string]any{"forceReset": false}, nil)
	assert.Equal(t, http.StatusConflict, status)

	semi := view.Rounds[0].Matches[0]
	final := view.Rounds[1].Matches[0]

	status = doJSON(t, http.MethodPost, tournamentURL+"/matches/"+final.ID.String()+"/result",
		map[string]any{"winnerId": withPlayers.Participants[0].ID}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status, "Final is still waiting on the semi")

	status = doJSON(t, http.MethodPost, tournamentURL+"/matches/"+semi.ID.String()+"/result",
		map[string]any{"winnerId": withPlayers.Participants[1].ID, "score": "3-1"}, &view)
	require.Equal(t, http.StatusOK, status)

	status = doJSON(t, http.MethodPost, tournamentURL+"/matches/"+final.ID.String()+"/result",
		map[string]any{"winnerId": withPlayers.Participants[2].ID}, &view)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, view.Champion)
	assert.Equal(t, "Carla", view.Champion.Name)
	assert.Equal(t, bracket.TournamentCompleted, view.Status)

	status = doJSON(t, http.MethodDelete, tournamentURL+"/participants/"+withPlayers.Participants[0].ID.String(), nil, nil)
	assert.Equal(t, http.StatusConflict, status)

	var list []bracket.Tournament
	status = doJSON(t, http.MethodGet, api, nil, &list)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, list, 1)
}

func TestErrorResponses(t *testing.T) {
	srv := newTestServer(t)
	api := srv.URL + "/api/tournaments"

	testCases := []struct {
		name     string
		method   string
		url      string
		body     any
		expected int
	}{
		{name: "Unknown tournament", method: http.MethodGet, url: api + "/" + uuid.NewString(), expected: http.StatusNotFound},
		{name: "Malformed id", method: http.MethodGet, url: api + "/not-a-uuid", expected: http.StatusBadRequest},
		{name: "Blank name", method: http.MethodPost, url: api, body: map[string]any{"name": ""}, expected: http.StatusBadRequest},
		{name: "Double elimination", method: http.MethodPost, url: api, body: map[string]any{"name": "DE", "type": "double_elimination"}, expected: http.StatusBadRequest},
		{name: "Bracket for unknown tournament", method: http.MethodPost, url: api + "/" + uuid.NewString() + "/bracket", expected: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, doJSON(t, tc.method, tc.url, tc.body, nil))
		})
	}
}

func TestSettingsRoutes(t *testing.T) {
	srv := newTestServer(t)

	var settings bracket.Settings
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/settings", nil, &settings))
	assert.Equal(t, bracket.DefaultSettings(), settings)

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPatch, srv.URL+"/api/settings", map[string]any{"theme": "dark"}, &settings))
	assert.Equal(t, bracket.ThemeDark, settings.Theme)

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, srv.URL+"/api/settings/onboarding", nil, &settings))
	assert.True(t, settings.HasCompletedOnboarding)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPatch, srv.URL+"/api/settings", map[string]any{"language": "fr"}, nil))
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
