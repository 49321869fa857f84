package service

import (
	"context"
	"fmt"
	"log/slog"

	echo "github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/Emmyhack/Codar-Meeting-App/pkg/protocol"
	"github.com/Emmyhack/Codar-Meeting-App/pkg/variables"
)

type httpServer_Params struct {
	fx.In

	Lifecycle   fx.Lifecycle
	Controllers []protocol.HttpResolvable `group:"http.controller"`
	Logger      *slog.Logger
}

func httpErrorHandler(e *echo.Echo, logger *slog.Logger) func(err error, c echo.Context) {
	return func(err error, c echo.Context) {
		logger.Error(err.Error(), slog.String("request", fmt.Sprintf("%+v", c.Request())))
		e.DefaultHTTPErrorHandler(err, c)
	}
}

func httpServer(params httpServer_Params) (*echo.Echo, error) {
	router := echo.New()
	router.HideBanner = true
	router.HTTPErrorHandler = httpErrorHandler(router, params.Logger)

	for _, controller := range params.Controllers {
		if err := controller.Resolve(router); err != nil {
			return nil, err
		}
	}

	addr := fmt.Sprintf(":%s", variables.Env(variables.HTTP_PORT_NAME, variables.HTTP_PORT_DEFAULT))

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := router.Start(addr); err != nil {
					params.Logger.Error(err.Error())
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return router.Shutdown(ctx)
		},
	})

	return router, nil
}

var HttpModule = fx.Module("http",
	fx.Provide(httpServer),
	fx.Invoke(func(*echo.Echo) {}),
)
