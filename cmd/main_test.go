package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	app "github.com/okian/cremling/internal/app"
	"github.com/okian/cremling/internal/config"
	"github.com/okian/cremling/pkg/logger"
	"github.com/okian/cremling/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("CREMLING_ADDR", ":8080")
			_ = os.Setenv("CREMLING_MAX_SESSIONS", "25")
			_ = os.Setenv("CREMLING_MAX_PARTY_SIZE", "6")
			defer func() {
				_ = os.Unsetenv("CREMLING_ADDR")
				_ = os.Unsetenv("CREMLING_MAX_SESSIONS")
				_ = os.Unsetenv("CREMLING_MAX_PARTY_SIZE")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxSessions, convey.ShouldEqual, 25)
				convey.So(cfg.MaxPartySize, convey.ShouldEqual, 6)
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			cfg := config.New()
			cfg.MetricsEnabled = false
			cfg.MetricsNamespace = "arena"
			cfg.MetricsRefreshInterval = 250 * time.Millisecond
			cfg.MetricsLabels = map[string]string{"deployment": "test"}

			registry := prometheus.NewRegistry()
			manager := metrics.NewManager(append(metricsOptions(cfg), metrics.WithPrometheusRegistry(registry))...)

			convey.Convey("Then the manager follows the metrics settings", func() {
				convey.So(manager.Enabled(), convey.ShouldBeFalse)
				convey.So(manager.RefreshInterval(), convey.ShouldEqual, 250*time.Millisecond)

				families, err := registry.Gather()
				convey.So(err, convey.ShouldBeNil)
				convey.So(families, convey.ShouldNotBeEmpty)
				for _, f := range families {
					convey.So(f.GetName(), convey.ShouldStartWith, "arena_planner_")
				}
			})
		})
	})
}

func TestBuildService(t *testing.T) {
	convey.Convey("Given a default configuration", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		cfg := config.New()

		convey.Convey("When the service is built and started", func() {
			svc, err := buildService(ctx, cfg, logger.Nop())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			handler := newHandler(ctx, cfg, svc)

			convey.Convey("Then the bundled catalog is served", func() {
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/catalog", nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)

				var body struct {
					Name  string `json:"name"`
					Count int    `json:"count"`
				}
				convey.So(json.NewDecoder(rec.Body).Decode(&body), convey.ShouldBeNil)
				convey.So(body.Name, convey.ShouldEqual, "entities.csv")
				convey.So(body.Count, convey.ShouldEqual, 20)
			})

			convey.Convey("And the docs and health routes are registered", func() {
				for _, path := range []string{"/healthz", "/stats", "/openapi.yaml", "/api-docs"} {
					rec := httptest.NewRecorder()
					handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
					convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				}
			})

			convey.Convey("And ad-hoc scoring works end to end", func() {
				req := httptest.NewRequest(http.MethodPost, "/score",
					strings.NewReader(`{"party":{"tier":1,"size":2},"enemies":[{"role":"Rival","tier":1},{"role":"Rival","tier":"1"}]}`))
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, req)
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(rec.Body.String(), convey.ShouldContainSubstring, `"category":"Average"`)
			})
		})
	})

	convey.Convey("Given file-backed settings", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		dir := t.TempDir()
		cfg := config.New()

		convey.Convey("When the catalog and likes paths are set", func() {
			cfg.CatalogPath = filepath.Join(dir, "homebrew.csv")
			cfg.LikesDBPath = filepath.Join(dir, "likes.db")
			convey.So(os.WriteFile(cfg.CatalogPath, []byte("Name,Tier,Role\nGorger,2,Boss\n"), 0o600), convey.ShouldBeNil)

			svc, err := buildService(ctx, cfg, logger.Nop())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			convey.Convey("Then both are used", func() {
				convey.So(svc.Catalog().Name(), convey.ShouldEqual, "homebrew.csv")
				convey.So(svc.Catalog().Len(), convey.ShouldEqual, 1)

				n, err := svc.Like(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(n, convey.ShouldEqual, 1)
				convey.So(svc.GetStats()["likes"], convey.ShouldEqual, int64(1))
			})
		})

		convey.Convey("When the catalog path is missing", func() {
			cfg.CatalogPath = filepath.Join(dir, "nope.csv")
			cfg.LikesDBPath = filepath.Join(dir, "likes.db")

			convey.Convey("Then building fails before the like store is opened", func() {
				svc, err := buildService(ctx, cfg, logger.Nop())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(svc, convey.ShouldBeNil)

				_, statErr := os.Stat(cfg.LikesDBPath)
				convey.So(os.IsNotExist(statErr), convey.ShouldBeTrue)
			})

			convey.Convey("Then starting fails the same way", func() {
				svc, err := startService(ctx, cfg, logger.Nop())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(svc, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a started service is stopped", func() {
			cfg.LikesDBPath = filepath.Join(dir, "likes.db")
			svc, err := startService(ctx, cfg, logger.Nop())
			convey.So(err, convey.ShouldBeNil)
			_, err = svc.Like(ctx)
			convey.So(err, convey.ShouldBeNil)
			svc.Stop()

			convey.Convey("Then it refuses to restart and the file can be reopened", func() {
				convey.So(errors.Is(svc.Start(ctx), app.ErrStopped), convey.ShouldBeTrue)

				again, err := startService(ctx, cfg, logger.Nop())
				convey.So(err, convey.ShouldBeNil)
				defer again.Stop()
				n, err := again.Likes(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(n, convey.ShouldEqual, 1)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			convey.Convey("Then it should return once the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSystemMetricsUpdater(ctx, time.Second)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing service metrics updater", func() {
			svc := app.New(app.WithLogger(logger.Nop()))
			convey.So(svc, convey.ShouldNotBeNil)

			convey.Convey("Then it should return once the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startServiceMetricsUpdater(ctx, svc, time.Second)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing metric updates", func() {
			svc := app.New(app.WithLogger(logger.Nop()))

			convey.Convey("Then they should not panic, started or not", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
				convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
			})
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given main application error handling", t, func() {
		convey.Convey("When testing invalid configuration", func() {
			_ = os.Setenv("CREMLING_LOG_FORMAT", "xml")
			defer func() { _ = os.Unsetenv("CREMLING_LOG_FORMAT") }()

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}
