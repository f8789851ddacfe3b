package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	repository "github.com/okian/cremling/internal/adapters/repository"
	service "github.com/okian/cremling/internal/app"
	"github.com/okian/cremling/internal/domain/catalog"
	"github.com/okian/cremling/internal/domain/scoring"
	"github.com/okian/cremling/internal/domain/session"
	"github.com/okian/cremling/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

const uploadCSV = `Name,Tier,Role,Type
Gorger,2,Boss,Beast
Skulk,2,Minion,Beast
`

func startedService(opts ...service.Option) *service.Service {
	svc := service.New(append([]service.Option{service.WithLogger(logger.Nop())}, opts...)...)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	So(svc.Start(ctx), ShouldBeNil)
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))
		ctx := context.Background()

		Convey("When it has not been started", func() {
			_, err := svc.CreateSession(ctx)

			Convey("Then calls are refused", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				_, err = svc.Score(ctx, scoring.Party{Tier: 1, Size: 1}, nil)
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})

		Convey("When starting and stopping", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then the bundled catalog is loaded", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["catalog"], ShouldEqual, catalog.DefaultName)
				So(svc.Catalog().Len(), ShouldBeGreaterThan, 0)
			})

			Convey("Then stopping marks it stopped", func() {
				svc.Stop()
				svc.Stop()
				So(svc.GetStats()["started"], ShouldEqual, false)
			})

			Convey("Then it cannot be started again", func() {
				svc.Stop()
				So(errors.Is(svc.Start(ctx), service.ErrStopped), ShouldBeTrue)
				_, err := svc.CreateSession(ctx)
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})

	Convey("Given a like store that fails on first use", t, func() {
		store := &brokenLikeStore{}
		svc := service.New(service.WithLogger(logger.Nop()), service.WithLikeStore(store))
		ctx := context.Background()

		Convey("When Start fails", func() {
			err := svc.Start(ctx)
			So(errors.Is(err, errLikesDown), ShouldBeTrue)

			Convey("Then Stop still releases the store exactly once", func() {
				svc.Stop()
				svc.Stop()
				So(store.closes, ShouldEqual, 1)
			})
		})

		Convey("When it is stopped without starting", func() {
			svc.Stop()

			Convey("Then the store is released and Start is refused", func() {
				So(store.closes, ShouldEqual, 1)
				So(errors.Is(svc.Start(ctx), service.ErrStopped), ShouldBeTrue)
			})
		})
	})
}

var errLikesDown = errors.New("likes down")

// brokenLikeStore fails every read and counts Close calls.
type brokenLikeStore struct {
	closes int
}

func (b *brokenLikeStore) Increment(context.Context) (int64, error) { return 0, errLikesDown }
func (b *brokenLikeStore) Count(context.Context) (int64, error)     { return 0, errLikesDown }

func (b *brokenLikeStore) Close() error {
	b.closes++
	return nil
}

func TestService_Score(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService()
		defer svc.Stop()
		ctx := context.Background()

		Convey("When scoring a valid encounter", func() {
			res, err := svc.Score(ctx, scoring.Party{Tier: 2, Size: 4}, []scoring.Enemy{
				{Role: scoring.Boss, Tier: 2},
				{Role: scoring.Minion, Tier: 1},
			})

			Convey("Then the scorer's result comes back", func() {
				So(err, ShouldBeNil)
				So(res.TotalThreat, ShouldEqual, 4.25)
				So(res.ThreatPerPlayer, ShouldEqual, 1.0625)
				So(res.Category, ShouldEqual, scoring.Average)
			})
		})

		Convey("When scoring with an empty party", func() {
			_, err := svc.Score(ctx, scoring.Party{Tier: 1, Size: 0}, nil)

			Convey("Then the argument error surfaces", func() {
				So(errors.Is(err, scoring.ErrInvalidArgument), ShouldBeTrue)
			})
		})
	})
}

func TestService_Sessions(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService(service.WithMaxPartySize(5), service.WithPartyTiers([]int{1, 2}))
		defer svc.Stop()
		ctx := context.Background()

		st, err := svc.CreateSession(ctx)
		So(err, ShouldBeNil)
		entries := st.Catalog.Entries()

		Convey("When a session is created", func() {
			Convey("Then it starts on the default catalog with an easy empty encounter", func() {
				So(st.ID, ShouldNotBeEmpty)
				So(st.Catalog.Name(), ShouldEqual, catalog.DefaultName)
				_, res, err := svc.Evaluate(ctx, st.ID)
				So(err, ShouldBeNil)
				So(res.TotalThreat, ShouldEqual, 0)
				So(res.Category, ShouldEqual, scoring.Easy)
				So(svc.GetStats()["activeSessions"], ShouldEqual, int64(1))
			})
		})

		Convey("When changing the party", func() {
			next, err := svc.SetParty(ctx, st.ID, scoring.Party{Tier: 2, Size: 3})
			So(err, ShouldBeNil)
			So(next.Party, ShouldResemble, scoring.Party{Tier: 2, Size: 3})

			Convey("Then limits from the options apply", func() {
				_, err := svc.SetParty(ctx, st.ID, scoring.Party{Tier: 3, Size: 3})
				So(errors.Is(err, scoring.ErrInvalidArgument), ShouldBeTrue)
				_, err = svc.SetParty(ctx, st.ID, scoring.Party{Tier: 1, Size: 6})
				So(errors.Is(err, scoring.ErrInvalidArgument), ShouldBeTrue)
			})
		})

		Convey("When picking and dropping enemies", func() {
			_, err := svc.AddEnemy(ctx, st.ID, entries[0].ID)
			So(err, ShouldBeNil)
			_, err = svc.AddEnemy(ctx, st.ID, entries[0].ID)
			So(err, ShouldBeNil)

			Convey("Then one can be removed at a time", func() {
				next, err := svc.RemoveEnemy(ctx, st.ID, entries[0].ID, true)
				So(err, ShouldBeNil)
				So(next.Selection.Len(), ShouldEqual, 1)
			})

			Convey("Then all instances can be removed", func() {
				next, err := svc.RemoveEnemy(ctx, st.ID, entries[0].ID, false)
				So(err, ShouldBeNil)
				So(next.Selection.Len(), ShouldEqual, 0)
			})

			Convey("Then removing an unpicked entry fails", func() {
				_, err := svc.RemoveEnemy(ctx, st.ID, entries[1].ID, false)
				So(errors.Is(err, session.ErrNotSelected), ShouldBeTrue)
			})

			Convey("Then clearing empties the selection", func() {
				next, err := svc.ClearSelection(ctx, st.ID)
				So(err, ShouldBeNil)
				So(next.Selection.Len(), ShouldEqual, 0)
			})
		})

		Convey("When uploading a catalog", func() {
			_, _ = svc.AddEnemy(ctx, st.ID, entries[0].ID)
			next, err := svc.UploadCatalog(ctx, st.ID, "mine.csv", strings.NewReader(uploadCSV))

			Convey("Then the session switches catalog and forgets its picks", func() {
				So(err, ShouldBeNil)
				So(next.Catalog.Name(), ShouldEqual, "mine.csv")
				So(next.Catalog.Len(), ShouldEqual, 2)
				So(next.Selection.Len(), ShouldEqual, 0)
				So(svc.Catalog().Name(), ShouldEqual, catalog.DefaultName)
			})

			Convey("Then enemies come from the new catalog", func() {
				_, err := svc.SetParty(ctx, st.ID, scoring.Party{Tier: 2, Size: 4})
				So(err, ShouldBeNil)
				_, err = svc.AddEnemy(ctx, st.ID, next.Catalog.Entries()[0].ID)
				So(err, ShouldBeNil)
				_, res, err := svc.Evaluate(ctx, st.ID)
				So(err, ShouldBeNil)
				So(res.ThreatPerPlayer, ShouldEqual, 1.0)
				So(res.Category, ShouldEqual, scoring.Average)
			})
		})

		Convey("When uploading a malformed catalog", func() {
			_, _ = svc.AddEnemy(ctx, st.ID, entries[0].ID)
			_, err := svc.UploadCatalog(ctx, st.ID, "bad.csv", strings.NewReader("Name,Tier\nA,1\n"))

			Convey("Then the session keeps its catalog and picks", func() {
				So(errors.Is(err, catalog.ErrInvalidCatalog), ShouldBeTrue)
				cur, err := svc.Session(ctx, st.ID)
				So(err, ShouldBeNil)
				So(cur.Catalog.Name(), ShouldEqual, catalog.DefaultName)
				So(cur.Selection.Len(), ShouldEqual, 1)
			})
		})

		Convey("When the session is deleted", func() {
			So(svc.DeleteSession(ctx, st.ID), ShouldBeNil)

			Convey("Then it can no longer be found", func() {
				_, err := svc.Session(ctx, st.ID)
				So(errors.Is(err, session.ErrNotFound), ShouldBeTrue)
				_, err = svc.AddEnemy(ctx, st.ID, entries[0].ID)
				So(errors.Is(err, session.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_Likes(t *testing.T) {
	Convey("Given a service with a seeded like store", t, func() {
		svc := startedService(service.WithLikeStore(repository.NewMemoryLikeStore(41)))
		defer svc.Stop()
		ctx := context.Background()

		Convey("When liking", func() {
			n, err := svc.Like(ctx)

			Convey("Then the counter advances and is readable", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 42)
				total, err := svc.Likes(ctx)
				So(err, ShouldBeNil)
				So(total, ShouldEqual, 42)
				So(svc.GetStats()["likes"], ShouldEqual, int64(42))
			})
		})
	})
}
