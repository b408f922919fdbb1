package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smuotoe/geoelevate/internal/adapters/http/api"
	"github.com/smuotoe/geoelevate/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

// stubPresence reports a fixed set of online identities.
type stubPresence struct {
	online map[int64]bool
}

func (s stubPresence) ReachableSubset(ids []int64) []int64 {
	var out []int64
	for _, id := range ids {
		if s.online[id] {
			out = append(out, id)
		}
	}
	return out
}

func newTestRouter() http.Handler {
	wsStub := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusSwitchingProtocols)
	})
	presence := stubPresence{online: map[int64]bool{10: true, 30: true}}
	return api.NewServer(wsStub, metrics.Handler(), presence).Router()
}

func TestRouter(t *testing.T) {
	Convey("Given the API router", t, func() {
		router := newTestRouter()

		get := func(path string) *httptest.ResponseRecorder {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			return rec
		}

		Convey("When health is probed", func() {
			rec := get("/healthz")

			Convey("Then it reports ok as JSON", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")
				So(rec.Body.String(), ShouldContainSubstring, `"status":"ok"`)
			})
		})

		Convey("When metrics are scraped", func() {
			rec := get("/metrics")

			Convey("Then the exposition format is served", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "geoelevate_match")
			})
		})

		Convey("When presence is queried", func() {
			rec := get("/presence?ids=10,20,30")

			Convey("Then only online identities come back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var resp struct {
					Reachable []int64 `json:"reachable"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Reachable, ShouldResemble, []int64{10, 30})
			})
		})

		Convey("When nobody asked about is online", func() {
			rec := get("/presence?ids=20,40")

			Convey("Then the reachable list is empty, not null", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"reachable":[]`)
			})
		})

		Convey("When the presence query is malformed", func() {
			for _, path := range []string{"/presence", "/presence?ids=", "/presence?ids=a,b", "/presence?ids=-5", "/presence?ids=1,,2"} {
				rec := get(path)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(rec.Body.String(), ShouldContainSubstring, `"code":"invalid_ids"`)
			}
		})
	})
}
