package production

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"mes.GO/api"
	"mes.GO/config"
	counterRepo "mes.GO/model/repository/counter"
	"mes.GO/model/repository/gormstore"
	productionRepo "mes.GO/model/repository/production"
	"mes.GO/service/allocation"
	"mes.GO/service/numbering"
	productionService "mes.GO/service/production"
	"mes.GO/service/search"
)

func init() {
	api.RegisterModule(RegisterProductionRoutes)
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, allocation.ErrNotFound), errors.Is(err, productionService.ErrLotNotFound):
		return http.StatusNotFound
	case errors.Is(err, productionService.ErrBadStatus), errors.Is(err, productionService.ErrUnknownInput):
		return http.StatusConflict
	case errors.Is(err, allocation.ErrInvariant):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func RegisterProductionRoutes(apiGroup *echo.Group, db *gorm.DB) {
	g := apiGroup.Group("/production")

	config.LoadAppConfig()
	store := gormstore.New(db)
	engine := allocation.NewEngine(store)
	numbers := numbering.NewService(config.AppConfig.LotPrefix, counterRepo.NewCounterRepository(db))
	svc := productionService.NewService(store, engine, numbers)
	lots := productionRepo.NewLotRepository(db)

	// POST /api/production/start – create a lot and deduct its BOM
	g.POST("/start", func(c echo.Context) error {
		var in productionService.StartInput
		if err := c.Bind(&in); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		res, err := svc.Start(c.Request().Context(), in)
		if err != nil {
			return c.JSON(httpStatus(err), echo.Map{"error": err.Error()})
		}
		// Index outside the request lifetime; a missing cluster is a no-op.
		go func() {
			_ = search.GetSearchService().IndexLot(context.Background(), res.Lot)
		}()
		return c.JSON(http.StatusCreated, res)
	})

	// POST /api/production/:lot/complete
	g.POST("/:lot/complete", func(c echo.Context) error {
		var body struct {
			CompletedQty float64 `json:"completed_qty"`
			DefectQty    float64 `json:"defect_qty"`
		}
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		lot, err := svc.Complete(c.Request().Context(), c.Param("lot"), body.CompletedQty, body.DefectQty)
		if err != nil {
			return c.JSON(httpStatus(err), echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, lot)
	})

	// POST /api/production/:lot/cancel – rollback and mark cancelled
	g.POST("/:lot/cancel", func(c echo.Context) error {
		lot, restored, err := svc.Cancel(c.Request().Context(), c.Param("lot"))
		if err != nil {
			return c.JSON(httpStatus(err), echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, echo.Map{"lot": lot, "links_restored": restored})
	})

	// POST /api/production/:lot/deduct – rerun a deduction on an open lot
	g.POST("/:lot/deduct", func(c echo.Context) error {
		var in allocation.DeductionInput
		if err := c.Bind(&in); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		res, err := svc.Deduct(c.Request().Context(), c.Param("lot"), in)
		if err != nil {
			return c.JSON(httpStatus(err), echo.Map{"error": err.Error()})
		}
		status := http.StatusOK
		if !res.Success {
			status = http.StatusUnprocessableEntity
		}
		return c.JSON(status, res)
	})

	// GET /api/production/:lot – lot detail with its consumption ledger
	g.GET("/:lot", func(c echo.Context) error {
		ctx := c.Request().Context()
		lot, err := store.Lots().ByNumber(ctx, c.Param("lot"))
		if err != nil {
			return c.JSON(httpStatus(err), echo.Map{"error": "lot not found"})
		}
		details, err := lots.LinkDetailsByLot(ctx, lot.LotID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, echo.Map{"lot": lot, "consumed": details})
	})

	// GET /api/production/bom/:product_id – resolved requirements for a qty
	g.GET("/bom/:product_id", func(c echo.Context) error {
		productID, err := strconv.ParseUint(c.Param("product_id"), 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product_id"})
		}
		qty := 1.0
		if q := c.QueryParam("qty"); q != "" {
			if qty, err = strconv.ParseFloat(q, 64); err != nil || qty <= 0 {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid qty"})
			}
		}
		reqs, err := engine.ResolveBOM(c.Request().Context(), uint(productID), c.QueryParam("step"), qty)
		if err != nil {
			return c.JSON(httpStatus(err), echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, echo.Map{"items": reqs})
	})

	// GET /api/production/search?q= – lot lookup (elasticsearch or DB LIKE)
	g.GET("/search", func(c echo.Context) error {
		limit := 20
		if l := c.QueryParam("limit"); l != "" {
			if n, err := strconv.Atoi(l); err == nil && n > 0 {
				limit = n
			}
		}
		found, err := search.GetSearchService().SearchLots(c.Request().Context(), lots, c.QueryParam("q"), limit)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, echo.Map{"items": found})
	})
}
