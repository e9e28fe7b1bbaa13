package middleware

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/green-city-platform/internal/logger"
)

// RequestLogger logs one line per request through the process logger.
func RequestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
				"user", userID(c),
			}
			if v.RequestID != "" {
				attrs = append(attrs, "request_id", v.RequestID)
			}
			level := slog.LevelInfo
			switch {
			case v.Error != nil || v.Status >= 500:
				level = slog.LevelError
				if v.Error != nil {
					attrs = append(attrs, "error", v.Error.Error())
				}
			case v.Status >= 400:
				level = slog.LevelWarn
			}
			logger.Get().Log(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}
