package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/creditdesk/authd/internal/logging"
	"github.com/creditdesk/authd/internal/models"
	"github.com/creditdesk/authd/internal/mykafka"
	"github.com/creditdesk/authd/internal/service/search"
	"github.com/creditdesk/authd/internal/util"
)

// ClientsHandler is the CRUD surface for credit-risk client records,
// protected by the user access guard at the router.
type ClientsHandler struct {
	DB       *gorm.DB
	ES       *elasticsearch.Client
	Index    string
	Producer *mykafka.Producer
}

func (h *ClientsHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var client models.Client
	if err := c.Bind(&client); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	client.ID = ""
	if client.Name == "" || client.Company == "" || client.Industry == "" || client.Location == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "validation failed")
	}

	if err := h.DB.WithContext(ctx).Create(&client).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "validation failed")
	}

	h.index(c, &client)
	h.publish(c, map[string]any{"type": "client_created", "clientID": client.ID})

	return c.JSON(http.StatusCreated, client)
}

func (h *ClientsHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	var clients []models.Client
	if err := h.DB.WithContext(ctx).Order("created_at DESC").Find(&clients).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, clients)
}

func (h *ClientsHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	var client models.Client
	err := h.DB.WithContext(ctx).Where("id = ?", c.Param("id")).First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, client)
}

func (h *ClientsHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	var client models.Client
	err := h.DB.WithContext(ctx).Where("id = ?", c.Param("id")).First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var req models.Client
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	req.ID = client.ID
	req.CreatedAt = client.CreatedAt

	if err := h.DB.WithContext(ctx).Save(&req).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "validation failed")
	}

	h.index(c, &req)
	h.publish(c, map[string]any{"type": "client_updated", "clientID": req.ID})

	return c.JSON(http.StatusOK, req)
}

// Patch overlays the request body onto the stored record, so fields absent
// from the payload keep their current values.
func (h *ClientsHandler) Patch(c echo.Context) error {
	ctx := c.Request().Context()

	var client models.Client
	err := h.DB.WithContext(ctx).Where("id = ?", c.Param("id")).First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	id, createdAt := client.ID, client.CreatedAt
	if err := c.Bind(&client); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	client.ID = id
	client.CreatedAt = createdAt
	if client.Name == "" || client.Company == "" || client.Industry == "" || client.Location == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "validation failed")
	}

	if err := h.DB.WithContext(ctx).Save(&client).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "validation failed")
	}

	h.index(c, &client)
	h.publish(c, map[string]any{"type": "client_updated", "clientID": client.ID})

	return c.JSON(http.StatusOK, client)
}

func (h *ClientsHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	res := h.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Client{})
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}

	if h.ES != nil {
		if err := search.DeleteClient(ctx, h.ES, h.Index, id); err != nil {
			logging.FromContext(ctx).Error("es delete error", "error", err)
		}
	}
	h.publish(c, map[string]any{"type": "client_deleted", "clientID": id})

	return c.NoContent(http.StatusNoContent)
}

func (h *ClientsHandler) Search(c echo.Context) error {
	if h.ES == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search unavailable")
	}

	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing query")
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, size := util.Calculate(page, size)

	ctx := c.Request().Context()
	total, clients, err := search.Search(ctx, h.ES, h.Index, q, from, size)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "search error")
	}

	return c.JSON(http.StatusOK, echo.Map{"total": total, "clients": clients})
}

func (h *ClientsHandler) index(c echo.Context, client *models.Client) {
	if h.ES == nil {
		return
	}
	ctx := c.Request().Context()
	if err := search.IndexClient(ctx, h.ES, h.Index, client); err != nil {
		logging.FromContext(ctx).Error("es index error", "error", err)
	}
}

func (h *ClientsHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	key, _ := event["clientID"].(string)
	if err := h.Producer.PublishEvent(ctx, "client_events", key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}
