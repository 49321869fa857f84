package room

import (
	"net/http"

	echo "github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/Emmyhack/Codar-Meeting-App/internal/registry"
	"github.com/Emmyhack/Codar-Meeting-App/pkg/protocol"
)

// roomController exposes the read-only diagnostics surface. Everything it
// serves comes from published snapshots; it never takes a room lock, so
// responses may be one mutation stale.
type roomController struct {
	coordinator *Coordinator
	registry    *registry.Registry
}

type RoomListResponse struct {
	Rooms []Status `json:"rooms"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
}

func (ctrl *roomController) RoomList(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, RoomListResponse{
		Rooms: ctrl.coordinator.ListRooms(),
	})
}

func (ctrl *roomController) RoomStatus(ctx echo.Context) error {
	status, exist := ctrl.coordinator.RoomStatus(ctx.Param("id"))
	if !exist {
		return echo.NewHTTPError(http.StatusNotFound, "room not found")
	}
	return ctx.JSON(http.StatusOK, status)
}

func (ctrl *roomController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, HealthResponse{
		Status:      "ok",
		Rooms:       ctrl.coordinator.RoomCount(),
		Connections: ctrl.registry.Count(),
	})
}

func (ctrl *roomController) Resolve(router protocol.HttpRouter) error {
	router.GET("/rooms", ctrl.RoomList)
	router.GET("/rooms/:id", ctrl.RoomStatus)
	router.GET("/health", ctrl.Health)
	return nil
}

var _ protocol.HttpResolvable = (*roomController)(nil)

type newRoomController_Params struct {
	fx.In

	Coordinator *Coordinator
	Registry    *registry.Registry
}

func NewRoomController(params newRoomController_Params) *roomController {
	return &roomController{
		coordinator: params.Coordinator,
		registry:    params.Registry,
	}
}
