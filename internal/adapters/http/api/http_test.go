package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/evalboard/internal/adapters/http/api"
	"github.com/okian/evalboard/internal/adapters/repository"
	service "github.com/okian/evalboard/internal/app"
	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func clock() time.Time { return time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC) }

func seededStore(t *testing.T) *repository.MemStore {
	t.Helper()
	ctx := context.Background()
	s := repository.NewMemStore()
	steps := []error{
		s.UpsertInspectors(ctx, []model.Inspector{{ID: "i1", Name: "Alice"}, {ID: "i2", Name: "Bob"}}),
		s.UpsertItems(ctx, []model.EvaluationItem{
			{ID: "fire", SubItem: "Extinguisher", MainItem: "Fire"},
			{ID: "new", SubItem: "Drone survey", MainItem: "Other", Status: model.StatusPending},
		}),
		s.SaveBatchTargets(ctx, []model.Target{{InspectorID: "i1", MainItem: model.WildcardItem, TargetValue: 62, StartDate: "2024-05-01", EndDate: "2024-05-31"}}),
		s.CreateRecord(ctx, model.EvaluationRecord{ID: "r1", Date: "2024-05-01", InspectorID: "i1", MainItem: "Fire", SubItem: "Extinguisher", Count: 8, Status: model.StatusApproved}),
		s.CreateRecord(ctx, model.EvaluationRecord{ID: "r2", Date: "2024-05-10", InspectorID: "i1", MainItem: "Fire", SubItem: "Extinguisher", Count: 12, Status: model.StatusPending}),
		s.CreateRecord(ctx, model.EvaluationRecord{ID: "r3", Date: "2024-04-20", InspectorID: "i2", MainItem: "Fire", SubItem: "Extinguisher", Count: 5, Status: model.StatusApproved}),
	}
	for _, err := range steps {
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return s
}

// fullQueue reports backpressure on every submission.
type fullQueue struct {
	*service.Service
}

func (fullQueue) Submit(context.Context, model.Submission) (service.SubmitStatus, string, error) {
	return "", "", service.ErrQueueFull
}

type failingStore struct {
	*repository.MemStore
}

func (failingStore) ListRecords(context.Context, repository.RecordFilter) ([]model.EvaluationRecord, error) {
	return nil, errors.New("disk on fire")
}

func newMux(deps api.Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
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

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

func TestServer_ReadRoutes(t *testing.T) {
	Convey("Given a server over a seeded service", t, func() {
		svc := service.New(service.WithStore(seededStore(t)), service.WithClock(clock))
		mux := newMux(svc)

		Convey("Then health, metrics and stats answer", func() {
			So(do(mux, http.MethodGet, "/healthz", "").Code, ShouldEqual, http.StatusOK)
			So(do(mux, http.MethodGet, "/metrics", "").Code, ShouldEqual, http.StatusOK)
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["totalRecords"], ShouldEqual, 3.0)
			So(decode(w)["forecastFallbackTarget"], ShouldEqual, 10.0)
		})

		Convey("Then every response carries a request id", func() {
			w := do(mux, http.MethodGet, "/kpis", "")
			So(w.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)
		})

		Convey("When reading KPIs without a window", func() {
			w := do(mux, http.MethodGet, "/kpis", "")
			body := decode(w)

			Convey("Then month-to-date is used", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body["from"], ShouldEqual, "2024-05-01")
				So(body["to"], ShouldEqual, "2024-05-10")
				kpis := body["kpis"].(map[string]any)
				So(kpis["total_units"], ShouldEqual, 20.0)
				So(kpis["approval_rate"], ShouldEqual, 50.0)
				So(len(body["metrics"].([]any)), ShouldEqual, 4)
			})
		})

		Convey("When reading KPIs over an explicit window", func() {
			w := do(mux, http.MethodGet, "/kpis?from=2024-04-01&to=2024-05-31", "")

			Convey("Then out-of-month records count too", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["kpis"].(map[string]any)["total_units"], ShouldEqual, 25.0)
			})
		})

		Convey("Then malformed or inverted windows are rejected", func() {
			So(do(mux, http.MethodGet, "/trend?from=May", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/matrix?from=2024-05-10&to=2024-05-01", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Then the list views return data arrays", func() {
			for _, path := range []string{"/trend", "/categories", "/items", "/matrix"} {
				w := do(mux, http.MethodGet, path, "")
				So(w.Code, ShouldEqual, http.StatusOK)
				_, ok := decode(w)["data"].([]any)
				So(ok, ShouldBeTrue)
			}
		})

		Convey("Then the risk view counts every tier", func() {
			w := do(mux, http.MethodGet, "/risk", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(len(body["counts"].(map[string]any)), ShouldEqual, 4)
			So(len(body["data"].([]any)), ShouldEqual, 2)
		})

		Convey("When reading one inspector", func() {
			perf := do(mux, http.MethodGet, "/performance/i1", "")
			fc := do(mux, http.MethodGet, "/forecast/i1", "")

			Convey("Then performance and forecast are returned", func() {
				So(perf.Code, ShouldEqual, http.StatusOK)
				So(decode(perf)["data"].(map[string]any)["target_value"], ShouldEqual, 62.0)
				So(decode(perf)["data"].(map[string]any)["grade_label"], ShouldNotBeEmpty)
				So(fc.Code, ShouldEqual, http.StatusOK)
				So(decode(fc)["forecast"], ShouldEqual, 62.0)
				So(decode(fc)["status"], ShouldEqual, "on track")
			})

			Convey("Then unknown inspectors are 404", func() {
				So(do(mux, http.MethodGet, "/performance/ghost", "").Code, ShouldEqual, http.StatusNotFound)
				So(do(mux, http.MethodGet, "/forecast/ghost", "").Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("Then notifications default to an empty list", func() {
			w := do(mux, http.MethodGet, "/notifications/i1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
		})

		Convey("Then records can be filtered", func() {
			w := do(mux, http.MethodGet, "/records?status=pending", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var recs []model.EvaluationRecord
			So(json.Unmarshal(w.Body.Bytes(), &recs), ShouldBeNil)
			So(len(recs), ShouldEqual, 1)
			So(recs[0].ID, ShouldEqual, "r2")

			So(do(mux, http.MethodGet, "/records?status=lost", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/records?limit=-1", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Then analysis is unavailable without an analyst", func() {
			So(do(mux, http.MethodGet, "/analysis", "").Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("Then a wrong method is refused", func() {
			So(do(mux, http.MethodDelete, "/kpis", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})

	Convey("Given a store that fails", t, func() {
		svc := service.New(service.WithStore(failingStore{seededStore(t)}), service.WithClock(clock))
		mux := newMux(svc)

		Convey("Then reads answer 500", func() {
			w := do(mux, http.MethodGet, "/kpis", "")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(decode(w)["code"], ShouldEqual, "internal_error")
		})
	})
}

func TestServer_WriteRoutes(t *testing.T) {
	Convey("Given a started service", t, func() {
		store := seededStore(t)
		svc := service.New(service.WithStore(store), service.WithClock(clock), service.WithWorkerCount(1))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer func() { _ = svc.Stop(context.Background()) }()
		mux := newMux(svc)

		Convey("When posting a new submission twice", func() {
			body := `{"submission_id":"s1","date":"2024-05-09","inspector_id":"i2","item_id":"fire","count":3}`
			first := do(mux, http.MethodPost, "/records", body)
			second := do(mux, http.MethodPost, "/records", body)

			Convey("Then the first is accepted and the second is a duplicate", func() {
				So(first.Code, ShouldEqual, http.StatusAccepted)
				So(decode(first)["status"], ShouldEqual, "accepted")
				So(second.Code, ShouldEqual, http.StatusOK)
				So(decode(second)["duplicate"], ShouldEqual, true)
			})
		})

		Convey("Then invalid submissions are 400", func() {
			So(do(mux, http.MethodPost, "/records", `{not json`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/records", `{"date":"2024-05-09","inspector_id":"i2","item_id":"fire","count":0}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When approving", func() {
			Convey("Then a pending record is approved", func() {
				So(do(mux, http.MethodPost, "/records/r2/approve", "").Code, ShouldEqual, http.StatusOK)
				rec, _ := store.ListRecords(context.Background(), repository.RecordFilter{Status: model.StatusPending})
				So(rec, ShouldBeEmpty)
			})

			Convey("Then a suggested item is approved", func() {
				So(do(mux, http.MethodPost, "/items/new/approve", "").Code, ShouldEqual, http.StatusOK)
			})

			Convey("Then unknown ids are 404", func() {
				So(do(mux, http.MethodPost, "/records/nope/approve", "").Code, ShouldEqual, http.StatusNotFound)
				So(do(mux, http.MethodPost, "/items/nope/approve", "").Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When posting targets", func() {
			ok := do(mux, http.MethodPost, "/targets", `[{"inspector_id":"i2","target_value":40,"start_date":"2024-05-01","end_date":"2024-05-31"}]`)
			bad := do(mux, http.MethodPost, "/targets", `[{"inspector_id":"i2","target_value":0}]`)

			Convey("Then a valid batch is created and an invalid one refused", func() {
				So(ok.Code, ShouldEqual, http.StatusCreated)
				So(decode(ok)["saved"], ShouldEqual, 1.0)
				So(bad.Code, ShouldEqual, http.StatusBadRequest)
				targets, _ := store.ListTargets(context.Background())
				So(len(targets), ShouldEqual, 2)
			})
		})
	})

	Convey("Given a service whose queue is full", t, func() {
		mux := newMux(fullQueue{service.New(service.WithStore(seededStore(t)))})

		Convey("Then submissions get 429", func() {
			w := do(mux, http.MethodPost, "/records", `{"submission_id":"s1","date":"2024-05-09","inspector_id":"i2","item_id":"fire","count":3}`)
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(decode(w)["code"], ShouldEqual, "backpressure")
		})
	})
}

func TestOpError(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		cause := errors.New("boom")

		Convey("Then kind and cause are both reachable", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: boom")
		})

		Convey("Then the short forms render", func() {
			So(api.NewKind("api.op", api.ErrBackpressure).Error(), ShouldEqual, "api.op: backpressure")
			So(api.Wrap("api.op", cause).Error(), ShouldEqual, "api.op: boom")
			So(api.Wrap("api.op", nil), ShouldBeNil)
		})
	})
}
