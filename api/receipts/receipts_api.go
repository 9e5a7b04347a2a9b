package receipts

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"mes.GO/api"
	"mes.GO/model/repository/gormstore"
	stockRepo "mes.GO/model/repository/stock"
	"mes.GO/service/receiving"
)

func init() {
	api.RegisterModule(RegisterReceiptRoutes)
}

func RegisterReceiptRoutes(apiGroup *echo.Group, db *gorm.DB) {
	g := apiGroup.Group("/receipts")
	store := gormstore.New(db)
	stock := stockRepo.NewStockRepository(db)

	// POST /api/receipts/import – bulk batch intake
	g.POST("/import", func(c echo.Context) error {
		start := time.Now()

		var body struct {
			Items     []receiving.ReceiptInput `json:"items"`
			BatchSize int                      `json:"batch_size"`
		}
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		if len(body.Items) == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "items array is required and must not be empty"})
		}

		res, err := receiving.ImportReceiptsJSON(db, body.Items, body.BatchSize)
		duration := time.Since(start).Milliseconds()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error(), "request_duration_ms": duration})
		}

		c.Response().Header().Set("X-Request-Duration-ms", strconv.FormatInt(duration, 10))
		return c.JSON(http.StatusOK, echo.Map{
			"imported":            res.Imported,
			"skipped":             res.Skipped,
			"warnings":            res.Warnings,
			"request_duration_ms": duration,
		})
	})

	// POST /api/receipts – single batch intake
	g.POST("", func(c echo.Context) error {
		var in receiving.ReceiptInput
		if err := c.Bind(&in); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		batch, err := receiving.Receive(c.Request().Context(), store, in)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusCreated, batch)
	})

	// GET /api/receipts/availability – on-hand per material
	g.GET("/availability", func(c echo.Context) error {
		ctx := c.Request().Context()
		if code := c.QueryParam("material_code"); code != "" {
			mat, err := stock.MaterialByCode(ctx, code)
			if err != nil {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "material not found"})
			}
			total, err := stock.GetAvailableByMaterial(ctx, mat.MaterialID)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
			}
			return c.JSON(http.StatusOK, echo.Map{
				"material_code": mat.Code,
				"unit":          mat.Unit,
				"available":     total,
			})
		}
		rows, err := stock.Availability(ctx)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, echo.Map{"items": rows})
	})

	// GET /api/receipts/batches?material_code= – FIFO-ordered batch list
	g.GET("/batches", func(c echo.Context) error {
		ctx := c.Request().Context()
		code := c.QueryParam("material_code")
		if code == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "material_code is required"})
		}
		mat, err := stock.MaterialByCode(ctx, code)
		if err != nil {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "material not found"})
		}
		batches, err := stock.BatchesByMaterial(ctx, mat.MaterialID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, echo.Map{"items": batches})
	})
}
