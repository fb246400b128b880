package middleware

import (
	"strconv"
	"time"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/metrics"

	"github.com/labstack/echo/v4"
)

// ルート単位でリクエスト数とレイテンシを記録する。
// ラベルは c.Path()（/order/:orderId のようなパターン）なのでIDで爆発しない。
func Metrics(m *metrics.ShopMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// ステータスを確定させる
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			status := strconv.Itoa(c.Response().Status)

			m.Requests.WithLabelValues(path, status).Inc()
			m.LatencyMS.WithLabelValues(path).Observe(float64(time.Since(start).Milliseconds()))
			return nil
		}
	}
}
