package trace

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"mes.GO/api"
	"mes.GO/config"
	"mes.GO/model/repository/gormstore"
	traceService "mes.GO/service/trace"
)

func init() {
	api.RegisterModule(RegisterTraceRoutes)
}

func RegisterTraceRoutes(apiGroup *echo.Group, db *gorm.DB) {
	g := apiGroup.Group("/trace")

	config.LoadAppConfig()
	tracer := traceService.NewTracer(gormstore.New(db))

	depthParam := func(c echo.Context) int {
		depth := config.AppConfig.TraceMaxDepth
		if d := c.QueryParam("depth"); d != "" {
			if n, err := strconv.Atoi(d); err == nil && n > 0 {
				depth = n
			}
		}
		return depth
	}

	// GET /api/trace/forward/:batch_no – downstream lots of a batch
	g.GET("/forward/:batch_no", func(c echo.Context) error {
		tree, err := tracer.TraceForward(c.Request().Context(), c.Param("batch_no"), depthParam(c))
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, tree)
	})

	// GET /api/trace/backward/:lot_number – upstream batches of a lot
	g.GET("/backward/:lot_number", func(c echo.Context) error {
		tree, err := tracer.TraceBackward(c.Request().Context(), c.Param("lot_number"), depthParam(c))
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, tree)
	})

	// GET /api/trace/both/:id – forward as a batch, backward as a lot
	g.GET("/both/:id", func(c echo.Context) error {
		res, err := tracer.TraceBoth(c.Request().Context(), c.Param("id"), depthParam(c))
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, res)
	})
}
