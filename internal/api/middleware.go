package api

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/samkraft/samkraft-api/internal/logger"
)

const healthPath = "/api/health"

func (s *Server) accessLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			now := time.Now()

			err := next(c)
			if err != nil {
				// the error handler writes the response status
				c.Error(err)
			}

			if c.Request().URL.Path != healthPath {
				s.logger.Info("handled request", logger.RequestFields(logger.Request{
					Method:    c.Request().Method,
					Path:      c.Request().URL.Path,
					RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
					RemoteIP:  c.RealIP(),
					Status:    c.Response().Status,
					Duration:  time.Since(now),
				})...)
			}
			return nil
		}
	}
}

func (s *Server) recoverPanics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (returnErr error) {
			defer func() {
				if r := recover(); r != nil {
					if r == http.ErrAbortHandler {
						panic(r)
					}
					err, ok := r.(error)
					if !ok {
						err = fmt.Errorf("%v", r)
					}

					stack := make([]byte, 4<<10)
					length := runtime.Stack(stack, false)
					s.logger.Error("recovered from panic", zap.Error(err), zap.ByteString("stack", stack[:length]))

					returnErr = err
				}
			}()
			return next(c)
		}
	}
}
