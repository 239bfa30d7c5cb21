package api_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/redbuttegarden/memberships/internal/adapters/http/api"
	"github.com/redbuttegarden/memberships/internal/adapters/repository"
	service "github.com/redbuttegarden/memberships/internal/app"
	"github.com/redbuttegarden/memberships/internal/domain/types"
	"github.com/redbuttegarden/memberships/internal/domain/selector"
	"github.com/redbuttegarden/memberships/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockDependencies implements api.Dependencies.
type mockDependencies struct {
	validator *selector.Validator
	rec       api.Recommendation
	recErr    error
	levels    []api.LevelView
	lastReq   selector.Request
}

func (m *mockDependencies) Recommend(_ context.Context, req selector.Request) (api.Recommendation, error) {
	m.lastReq = req
	if m.validator != nil {
		if err := m.validator.Check(req); err != nil {
			return api.Recommendation{}, err
		}
	}
	if m.recErr != nil {
		return api.Recommendation{}, m.recErr
	}
	return m.rec, nil
}

func (m *mockDependencies) Levels(context.Context) []api.LevelView { return m.levels }

func (m *mockDependencies) Level(_ context.Context, id int) (api.LevelView, error) {
	for _, l := range m.levels {
		if l.ID == id {
			return l, nil
		}
	}
	return api.LevelView{}, fmt.Errorf("level %d: %w", id, repository.ErrNotFound)
}

func (m *mockDependencies) LevelCount(context.Context) int { return len(m.levels) }

func (m *mockDependencies) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func newMux(deps api.Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps).Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a server over mock dependencies", t, func() {
		deps := &mockDependencies{levels: []api.LevelView{
			{ID: 1, Name: "Individual", Price: decimal.RequireFromString("65.00"), Active: true},
		}}
		mux := newMux(deps)

		Convey("Then /healthz reports the loaded levels", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
			var body map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body["status"], ShouldEqual, "ok")
			So(body["levels"], ShouldEqual, float64(1))
		})

		Convey("Then /metrics serves Prometheus text", func() {
			do(mux, http.MethodGet, "/healthz", "")
			w := do(mux, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "http_requests_total")
		})

		Convey("Then /stats returns the provider stats", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Then wrong methods on read endpoints are 404", func() {
			So(do(mux, http.MethodPost, "/levels", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodDelete, "/stats", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestRecommendHandler(t *testing.T) {
	Convey("Given a recommend handler", t, func() {
		match := "Exact"
		deps := &mockDependencies{
			validator: selector.New(),
			rec: api.Recommendation{
				MatchType:   &match,
				Highlighted: &api.LevelView{ID: 2, Name: "Individual Plus"},
				Suggestions: []types.Suggestion{},
			},
		}
		mux := newMux(deps)

		Convey("When a valid JSON body is posted", func() {
			w := do(mux, http.MethodPost, "/recommendations", `{"cardholders":1,"guests":1,"tickets":0}`)

			Convey("Then the recommendation is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastReq, ShouldResemble, selector.Request{Cardholders: 1, Guests: 1, Tickets: 0})
				So(w.Body.String(), ShouldContainSubstring, `"match_type":"Exact"`)
			})
		})

		Convey("When the selector is sent as query parameters", func() {
			w := do(mux, http.MethodGet, "/recommendations?cardholders=2&guests=2&tickets=4", "")

			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastReq, ShouldResemble, selector.Request{Cardholders: 2, Guests: 2, Tickets: 4})
		})

		Convey("When the query omits cardholders", func() {
			w := do(mux, http.MethodGet, "/recommendations?guests=2", "")

			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "missing cardholders")
		})

		Convey("When the body is malformed", func() {
			w := do(mux, http.MethodPost, "/recommendations", `{"cardholders":"two"}`)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, `"code":"bad_request"`)
		})

		Convey("When the body has unknown fields", func() {
			w := do(mux, http.MethodPost, "/recommendations", `{"cardholders":1,"admissions":1}`)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the presale rule fails", func() {
			w := do(mux, http.MethodPost, "/recommendations", `{"cardholders":1,"guests":0,"tickets":4}`)

			Convey("Then field errors are returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var body struct {
					Code   string                `json:"code"`
					Errors []selector.FieldError `json:"errors"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Code, ShouldEqual, "invalid_request")
				So(len(body.Errors), ShouldEqual, 1)
				So(body.Errors[0].Field, ShouldEqual, "tickets")
				So(body.Errors[0].Message, ShouldContainSubstring, "4 ticket level")
			})
		})

		Convey("When the service fails unexpectedly", func() {
			deps.recErr = errors.New("boom")
			w := do(mux, http.MethodPost, "/recommendations", `{"cardholders":1}`)

			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("When an unsupported method is used", func() {
			w := do(mux, http.MethodPut, "/recommendations", "")

			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(w.Header().Get("Allow"), ShouldEqual, "GET, POST")
		})
	})
}

func TestLevelsHandler(t *testing.T) {
	Convey("Given a levels handler", t, func() {
		deps := &mockDependencies{levels: []api.LevelView{
			{ID: 1, Name: "Individual", Price: decimal.RequireFromString("65.00")},
			{ID: 4, Name: "Dual", Price: decimal.RequireFromString("95.00")},
		}}
		mux := newMux(deps)

		Convey("Then GET /levels lists them", func() {
			w := do(mux, http.MethodGet, "/levels", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var body struct {
				Levels []api.LevelView `json:"levels"`
				Count  int             `json:"count"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body.Count, ShouldEqual, 2)
			So(body.Levels[1].Price.Equal(decimal.NewFromInt(95)), ShouldBeTrue)
		})

		Convey("Then an empty catalog lists an empty array", func() {
			deps.levels = nil
			w := do(mux, http.MethodGet, "/levels", "")
			So(w.Body.String(), ShouldContainSubstring, `"levels":[]`)
		})

		Convey("Then GET /levels/{id} finds one", func() {
			w := do(mux, http.MethodGet, "/levels/4", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"name":"Dual"`)
		})

		Convey("Then unknown ids are 404", func() {
			w := do(mux, http.MethodGet, "/levels/99", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(w.Body.String(), ShouldContainSubstring, `"code":"not_found"`)
			So(w.Body.String(), ShouldContainSubstring, `"message":"api.get_level: not found: level 99`)
		})

		Convey("Then non-numeric ids are 400", func() {
			So(do(mux, http.MethodGet, "/levels/abc", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/levels/1/x", "").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	Convey("Given a handler behind the request id middleware", t, func() {
		var seen string
		h := api.RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = api.RequestIDFromContext(r.Context())
		}))

		Convey("When the client sends an id", func() {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.Header.Set(api.RequestIDHeader, "abc-123")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			So(seen, ShouldEqual, "abc-123")
			So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "abc-123")
		})

		Convey("When the client sends none", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

			So(len(seen), ShouldEqual, 36)
			So(w.Header().Get(api.RequestIDHeader), ShouldEqual, seen)
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given API errors", t, func() {
		cause := errors.New("eof")

		Convey("WrapKind unwraps to both kind and cause", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: eof")
		})

		Convey("NewKind carries only the kind", func() {
			err := api.NewKind("api.op", api.ErrNotFound)
			So(errors.Is(err, api.ErrNotFound), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: not found")
		})

		Convey("Wrap of nil is nil", func() {
			So(api.Wrap("api.op", nil), ShouldBeNil)
			So(api.Wrap("api.op", cause).Error(), ShouldEqual, "api.op: eof")
		})
	})
}

func TestEndToEnd(t *testing.T) {
	Convey("Given the real service over the garden fixture", t, func() {
		svc := service.New(service.WithFixturePath("../../../../testdata/membership_levels.json"))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		mux := newMux(svc)

		Convey("When two cardholders with one guest ask for two tickets", func() {
			w := do(mux, http.MethodPost, "/recommendations", `{"cardholders":2,"guests":1,"tickets":2}`)

			Convey("Then the exact level and its downsells come back", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var rec types.Recommendation
				So(json.Unmarshal(w.Body.Bytes(), &rec), ShouldBeNil)
				So(*rec.MatchType, ShouldEqual, "Exact")
				So(rec.Highlighted.ID, ShouldEqual, 6)
				So(rec.Suggestions[0].Badge, ShouldEqual, types.BadgeDownsell)
				So(rec.Suggestions[0].Level.ID, ShouldEqual, 5)
				So(rec.Suggestions[1].Level.ID, ShouldEqual, 2)
			})
		})

		Convey("When nothing matches", func() {
			w := do(mux, http.MethodPost, "/recommendations", `{"cardholders":3,"guests":0,"tickets":0}`)

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"match_type":null`)
			So(w.Body.String(), ShouldContainSubstring, `"suggestions":[]`)
		})
	})
}
