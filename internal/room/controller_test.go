package room

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	echo "github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func newTestController(h *harness) (*roomController, *echo.Echo) {
	ctrl := NewRoomController(newRoomController_Params{
		Coordinator: h.coordinator,
		Registry:    h.registry,
	})
	router := echo.New()
	_ = ctrl.Resolve(router)
	return ctrl, router
}

func doRequest(router *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRoomListEndpoint(t *testing.T) {
	h := newHarness(defaultTestConfig())
	_, router := newTestController(h)

	rec := doRequest(router, "/rooms")
	require.Equal(t, http.StatusOK, rec.Code)
	var empty RoomListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &empty))
	require.Empty(t, empty.Rooms)

	a, _ := h.connect()
	b, _ := h.connect()
	h.join(t, a, "beta-room", "Alice")
	h.join(t, b, "alpha-room", "Bob")

	rec = doRequest(router, "/rooms")
	require.Equal(t, http.StatusOK, rec.Code)
	var response RoomListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Rooms, 2)
	require.Equal(t, "alpha-room", response.Rooms[0].ID)
	require.Equal(t, "beta-room", response.Rooms[1].ID)
}

func TestRoomStatusEndpoint(t *testing.T) {
	h := newHarness(defaultTestConfig())
	_, router := newTestController(h)

	a, _ := h.connect()
	h.join(t, a, "room-1", "Alice")

	rec := doRequest(router, "/rooms/room-1")
	require.Equal(t, http.StatusOK, rec.Code)
	var status Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Equal(t, "room-1", status.ID)
	require.Equal(t, 1, status.Participants)
	require.Equal(t, a.ID(), status.HostID)

	rec = doRequest(router, "/rooms/missing-room")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	h := newHarness(defaultTestConfig())
	_, router := newTestController(h)

	a, _ := h.connect()
	h.connect()
	h.join(t, a, "room-1", "Alice")

	rec := doRequest(router, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "ok", health.Status)
	require.Equal(t, 1, health.Rooms)
	require.Equal(t, 2, health.Connections)
}
