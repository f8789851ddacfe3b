package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

// counterValue sums every series of the named family in the custom registry.
func counterValue(name string) float64 {
	families, err := GetRegistry().Gather()
	So(err, ShouldBeNil)
	total := 0.0
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				total += m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				total += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return total
}

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When applying them to a manager", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(
				WithNamespace("test_ns"),
				WithSubsystem("test_sub"),
				WithMetricsEnabled(false),
				WithRefreshInterval(2*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then every setting sticks", func() {
				So(m.namespace, ShouldEqual, "test_ns")
				So(m.subsystem, ShouldEqual, "test_sub")
				So(m.Enabled(), ShouldBeFalse)
				So(m.RefreshInterval(), ShouldEqual, 2*time.Second)
				So(m.customLabels["env"], ShouldEqual, "test")
			})

			Convey("Then metric names carry the namespace and the labels", func() {
				m.encountersScored.WithLabelValues("Easy").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var found bool
				for _, f := range families {
					if f.GetName() != "test_ns_test_sub_encounters_scored_total" {
						continue
					}
					found = true
					So(f.GetMetric()[0].GetLabel()[1].GetName(), ShouldEqual, "env")
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When passing empty values", func() {
			m := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithRefreshInterval(0),
				WithCustomLabels(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the defaults are kept", func() {
				So(m.namespace, ShouldEqual, "cremling")
				So(m.subsystem, ShouldEqual, "planner")
				So(m.Enabled(), ShouldBeTrue)
				So(m.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
				So(m.customLabels, ShouldNotBeNil)
			})
		})
	})
}

func TestInit(t *testing.T) {
	Convey("Given a global manager rebuilt from options", t, func() {
		previous := GetRegistry()
		m := Init(WithNamespace("arena"), WithMetricsEnabled(false), WithRefreshInterval(time.Second))
		Reset(func() { Init() })

		Convey("Then the registry and refresh interval follow it", func() {
			So(GetRegistry(), ShouldNotEqual, previous)
			So(m.Enabled(), ShouldBeFalse)
			So(RefreshInterval(), ShouldEqual, time.Second)
		})

		Convey("Then no recorder moves a series while disabled", func() {
			RecordEncounterScored("Hard", 1.5)
			RecordCatalogLoad("upload", 9)
			UpdateActiveSessions(4)
			RecordSessionCreated()
			UpdateLikes(2)
			RecordHTTPRequest("/score", "POST", "200")
			RecordErrorByType("invalid_argument", "warning")
			UpdateSystemGoroutineCount(12)
			RecordSystemGCPauseTime(0.2)

			So(counterValue("arena_planner_encounters_scored_total"), ShouldEqual, 0)
			So(counterValue("arena_planner_threat_per_player"), ShouldEqual, 0)
			So(counterValue("arena_planner_catalog_entries"), ShouldEqual, 0)
			So(counterValue("arena_planner_sessions_active"), ShouldEqual, 0)
			So(counterValue("arena_planner_sessions_created_total"), ShouldEqual, 0)
			So(counterValue("arena_planner_likes"), ShouldEqual, 0)
			So(counterValue("arena_planner_http_requests_total"), ShouldEqual, 0)
			So(counterValue("arena_planner_system_goroutine_count"), ShouldEqual, 0)
			So(counterValue("arena_planner_system_gc_pause_time_milliseconds"), ShouldEqual, 0)
		})

		Convey("Then the default manager comes back with Init()", func() {
			Init()
			So(RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			RecordSessionCreated()
			So(counterValue("cremling_planner_sessions_created_total"), ShouldEqual, 1)
		})
	})
}

func TestDomainMetrics(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When encounters are scored", func() {
			before := counterValue("cremling_planner_encounters_scored_total")
			RecordEncounterScored("Hard", 1.5)
			RecordEncounterScored("Easy", 0.25)

			Convey("Then the category counter and threat histogram advance", func() {
				So(counterValue("cremling_planner_encounters_scored_total")-before, ShouldEqual, 2)
				So(counterValue("cremling_planner_threat_per_player"), ShouldBeGreaterThanOrEqualTo, 2)
			})
		})

		Convey("When a catalog is loaded", func() {
			RecordCatalogLoad("upload", 42)

			Convey("Then the entries gauge reflects it", func() {
				So(counterValue("cremling_planner_catalog_entries"), ShouldEqual, 42)
			})
		})

		Convey("When sessions change", func() {
			UpdateActiveSessions(7)
			before := counterValue("cremling_planner_session_actions_total")
			RecordSessionAction("add_enemy", "ok")
			RecordSessionAction("set_party", "rejected")

			Convey("Then gauges and counters move", func() {
				So(counterValue("cremling_planner_sessions_active"), ShouldEqual, 7)
				So(counterValue("cremling_planner_session_actions_total")-before, ShouldEqual, 2)
			})
		})

		Convey("When likes are updated", func() {
			UpdateLikes(3)

			Convey("Then the gauge holds the count", func() {
				So(counterValue("cremling_planner_likes"), ShouldEqual, 3)
			})
		})

		Convey("When recording the remaining series", func() {
			So(func() {
				RecordScoringLatency(0.01)
				RecordScoringError()
				RecordCatalogLoadError()
				RecordSessionCreated()
				RecordSessionEvicted()
				RecordHTTPRequest("/score", "POST", "200")
				RecordHTTPRequestDuration("/score", "POST", "200", 1.5)
				RecordErrorByComponent("api", "invalid_argument")
				RecordErrorByType("invalid_argument", "warning")
				RecordErrorByEndpoint("/score", "POST", "invalid_argument")
				RecordErrorLatency("api", "invalid_argument", 0.3)
				UpdateSystemMemoryUsage(1024 * 1024)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.2)
			}, ShouldNotPanic)
		})

		Convey("When labels are empty or odd", func() {
			So(func() {
				RecordHTTPRequest("", "", "200")
				RecordErrorByComponent("component-with-dash", "error.with.dots")
				RecordEncounterScored("", 0)
			}, ShouldNotPanic)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		before := counterValue("cremling_planner_sessions_created_total")
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordSessionCreated()
					RecordEncounterScored("Average", 1)
					RecordHTTPRequest("/sessions", "POST", "201")
				}
			}()
		}
		wg.Wait()

		Convey("Then no increments are lost", func() {
			So(counterValue("cremling_planner_sessions_created_total")-before, ShouldEqual, 1000)
		})
	})
}
