package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/outdoor-safety-index/internal/weather"
)

var validate = validator.New()

// Collector triggers a collection run for one metric.
type Collector interface {
	RunCollection(ctx context.Context, metric weather.Metric) (weather.RunSummary, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, aggregator *weather.Aggregator, collector Collector) {
	v1 := app.Group("/api/v1")

	v1.Get("/cities", func(c *fiber.Ctx) error {
		cities, err := aggregator.Cities(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to list cities")
		}
		return c.JSON(fiber.Map{"cities": cities})
	})

	v1.Get("/averages", func(c *fiber.Ctx) error {
		q, err := parseMetricQuery(c, false)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		metric := weather.Metric(q.Metric)

		var (
			avg   float64
			ok    bool
			found = true
		)
		if q.City == "" {
			avg, ok, err = aggregator.Average(c.UserContext(), metric, nil)
		} else {
			avg, ok, found, err = aggregator.AverageForCity(c.UserContext(), metric, q.City)
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to compute average")
		}
		if !found {
			return fiber.NewError(fiber.StatusNotFound, "unknown city")
		}

		// average stays null when nothing has been stored; zero is a real value.
		resp := fiber.Map{
			"metric":    metric,
			"average":   nil,
			"available": ok,
		}
		if q.City != "" {
			resp["city"] = q.City
		}
		if ok {
			resp["average"] = avg
		}
		return c.JSON(resp)
	})

	v1.Get("/latest", func(c *fiber.Ctx) error {
		q, err := parseMetricQuery(c, true)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		m, ok, found, err := aggregator.LatestForCity(c.UserContext(), weather.Metric(q.Metric), q.City)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch latest measurement")
		}
		if !found || !ok {
			return fiber.NewError(fiber.StatusNotFound, "no measurement for requested city and metric")
		}
		return c.JSON(m)
	})

	v1.Get("/rankings", func(c *fiber.Ctx) error {
		ranking, err := aggregator.RankCities(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to rank cities")
		}
		return c.JSON(fiber.Map{"rankings": ranking})
	})

	v1.Get("/chart-data", func(c *fiber.Ctx) error {
		cd, err := aggregator.ChartData(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to build chart data")
		}
		return c.JSON(cd)
	})

	v1.Post("/collect/:metric", func(c *fiber.Ctx) error {
		metric, err := weather.ParseMetric(c.Params("metric"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Minute)
		defer cancel()

		sum, err := collector.RunCollection(ctx, metric)
		switch {
		case errors.Is(err, weather.ErrNoProvider):
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		case err != nil:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
				"summary": sum,
			})
		}
		return c.JSON(sum)
	})
}

// metricQuery holds query parameters for metric lookups.
type metricQuery struct {
	Metric string `validate:"required,oneof=weather uv air_quality"`
	City   string `validate:"max=100"`
}

func parseMetricQuery(c *fiber.Ctx, cityRequired bool) (metricQuery, error) {
	q := metricQuery{
		Metric: c.Query("metric"),
		City:   c.Query("city"),
	}

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	if cityRequired && q.City == "" {
		return q, errors.New("city query parameter is required")
	}
	return q, nil
}
