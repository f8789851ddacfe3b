package model_test

import (
	"testing"

	"github.com/okian/cremling/internal/domain/catalog"
	model "github.com/okian/cremling/internal/domain/model"
	"github.com/okian/cremling/internal/domain/scoring"
	"github.com/smartystreets/goconvey/convey"
)

var (
	houndA = model.Pick{EntryID: "a", Name: "Axehound", Tier: 1, Role: scoring.Minion}
	houndB = model.Pick{EntryID: "b", Name: "Axehound", Tier: 2, Role: scoring.Rival}
	boss   = model.Pick{EntryID: "c", Name: "Chasmfiend", Tier: 3, Role: scoring.Boss}
)

func TestSelection(t *testing.T) {
	convey.Convey("Given an empty selection", t, func() {
		var s model.Selection

		convey.Convey("Then it has nothing to score", func() {
			convey.So(s.Len(), convey.ShouldEqual, 0)
			convey.So(s.Enemies(), convey.ShouldBeEmpty)
			convey.So(s.Groups(), convey.ShouldBeEmpty)
		})

		convey.Convey("When picks are added", func() {
			s1 := s.Add(houndA)
			s2 := s1.Add(boss).Add(houndA).Add(houndB)

			convey.Convey("Then earlier values are not modified", func() {
				convey.So(s.Len(), convey.ShouldEqual, 0)
				convey.So(s1.Len(), convey.ShouldEqual, 1)
				convey.So(s2.Len(), convey.ShouldEqual, 4)
			})

			convey.Convey("Then duplicates are grouped by entry, not by name", func() {
				groups := s2.Groups()
				convey.So(len(groups), convey.ShouldEqual, 3)
				convey.So(groups[0].EntryID, convey.ShouldEqual, "a")
				convey.So(groups[0].Count, convey.ShouldEqual, 2)
				convey.So(groups[1].Name, convey.ShouldEqual, "Chasmfiend")
				convey.So(groups[2].EntryID, convey.ShouldEqual, "b")
				convey.So(groups[2].Count, convey.ShouldEqual, 1)
			})

			convey.Convey("Then enemies keep insertion order", func() {
				convey.So(s2.Enemies(), convey.ShouldResemble, []scoring.Enemy{
					{Role: scoring.Minion, Tier: 1},
					{Role: scoring.Boss, Tier: 3},
					{Role: scoring.Minion, Tier: 1},
					{Role: scoring.Rival, Tier: 2},
				})
			})

			convey.Convey("When removing all picks of an entry", func() {
				s3 := s2.RemoveAll("a")

				convey.Convey("Then a same-named entry with another identity survives", func() {
					convey.So(s3.Len(), convey.ShouldEqual, 2)
					convey.So(s3.Contains("a"), convey.ShouldBeFalse)
					convey.So(s3.Contains("b"), convey.ShouldBeTrue)
					convey.So(s2.Len(), convey.ShouldEqual, 4)
				})
			})

			convey.Convey("When removing one pick of an entry", func() {
				s3 := s2.RemoveOne("a")

				convey.Convey("Then only the first instance goes", func() {
					convey.So(s3.Picks(), convey.ShouldResemble, []model.Pick{boss, houndA, houndB})
				})
			})

			convey.Convey("When removing an entry that was never picked", func() {
				convey.So(s2.RemoveOne("zzz").Len(), convey.ShouldEqual, 4)
				convey.So(s2.RemoveAll("zzz").Len(), convey.ShouldEqual, 4)
			})

			convey.Convey("When clearing", func() {
				convey.So(s2.Clear().Len(), convey.ShouldEqual, 0)
				convey.So(s2.Len(), convey.ShouldEqual, 4)
			})
		})
	})

	convey.Convey("Given a catalog entry", t, func() {
		e := catalog.Entry{ID: "x", Name: "Whitespine", Tier: 1, Role: scoring.Rival}

		convey.Convey("Then a pick copies its scoring fields and identity", func() {
			p := model.PickFrom(e)
			convey.So(p, convey.ShouldResemble, model.Pick{EntryID: "x", Name: "Whitespine", Tier: 1, Role: scoring.Rival})
			convey.So(model.NewSelection(p, p).Len(), convey.ShouldEqual, 2)
		})
	})
}
