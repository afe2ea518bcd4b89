package http

import (
	"strconv"

	"github.com/labstack/echo/v4"

	xutil "TransWatcher/pkg/util"
)

// QueryInt reads an integer query parameter, falling back to def when empty or invalid.
func QueryInt(c echo.Context, name string, def int) int {
	return xutil.ParseIntDefault(c.QueryParam(name), def)
}

// ParamInt reads an integer path parameter.
func ParamInt(c echo.Context, name string) (int, error) {
	return strconv.Atoi(c.Param(name))
}
