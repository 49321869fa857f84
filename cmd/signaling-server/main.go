package main

import (
	"go.uber.org/fx"

	"github.com/Emmyhack/Codar-Meeting-App/internal/registry"
	"github.com/Emmyhack/Codar-Meeting-App/internal/room"
	"github.com/Emmyhack/Codar-Meeting-App/internal/signaling"
	"github.com/Emmyhack/Codar-Meeting-App/pkg/protocol"
	"github.com/Emmyhack/Codar-Meeting-App/pkg/service"
)

func main() {
	fx.New(
		fx.Provide(
			room.NewConfig,
			registry.NewRegistry,
			room.NewCoordinator,

			protocol.AsHttpController(room.NewRoomController),
			protocol.AsHttpController(signaling.NewController),
		),

		room.ReaperModule,

		service.LoggerModule,
		service.HttpModule,
	).Run()
}
