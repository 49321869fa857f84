package protocol

import (
	echo "github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const controllerGroup = `group:"http.controller"`

type HttpRouter = *echo.Echo

// HttpResolvable is a controller that registers its own routes. The http
// module collects every member of the controller group and resolves each
// one against the router at startup.
type HttpResolvable interface {
	Resolve(HttpRouter) error
}

// AsHttpController annotates a controller constructor into the controller
// group.
func AsHttpController(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(HttpResolvable)),
		fx.ResultTags(controllerGroup),
	)
}
