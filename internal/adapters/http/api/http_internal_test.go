package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/cremling/internal/domain/scoring"
	"github.com/okian/cremling/internal/domain/session"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWriteJSON(t *testing.T) {
	Convey("Given a response recorder", t, func() {
		rec := httptest.NewRecorder()

		Convey("When the value encodes", func() {
			writeJSON(rec, http.StatusCreated, likesResponse{Likes: 3})

			Convey("Then status and body are written", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)
				So(rec.Header().Get("Content-Type"), ShouldStartWith, "application/json")
				So(rec.Body.String(), ShouldEqual, "{\"likes\":3}\n")
			})
		})

		Convey("When the value cannot be encoded", func() {
			writeJSON(rec, http.StatusOK, scoring.Result{TotalThreat: math.Inf(1)})

			Convey("Then a 500 envelope replaces it", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
				var e errorResponse
				So(json.Unmarshal(rec.Body.Bytes(), &e), ShouldBeNil)
				So(e.Code, ShouldEqual, "internal_error")
			})
		})
	})
}

func TestSessionViewOf(t *testing.T) {
	Convey("Given a state the reducer never produced", t, func() {
		st := session.State{Party: scoring.Party{Tier: 1, Size: 0}}

		Convey("Then rendering reports the scoring error", func() {
			_, err := sessionViewOf(st)
			So(errors.Is(err, scoring.ErrInvalidArgument), ShouldBeTrue)
		})
	})
}
