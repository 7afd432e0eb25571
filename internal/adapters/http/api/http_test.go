package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	api "github.com/talentgrid/placer/internal/adapters/http/api"
	lock "github.com/talentgrid/placer/internal/adapters/lock"
	repository "github.com/talentgrid/placer/internal/adapters/repository"
	service "github.com/talentgrid/placer/internal/app"
	model "github.com/talentgrid/placer/internal/domain/model"
	"github.com/talentgrid/placer/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func cgpa(v float64) *float64 { return &v }

func newTestServer(seed bool) *httptest.Server {
	ctx := context.Background()
	store := repository.NewMemStore()
	if seed {
		_ = store.PutCandidate(ctx, model.Candidate{
			ID: "c1", Email: "ada@example.com", Name: "Ada",
			CGPA: cgpa(8.0), Skills: "python,sql", LocationPref: "Pune",
		})
		_ = store.PutPosition(ctx, model.Position{
			ID: "p1", Title: "Backend Engineer", Location: "Pune",
			Capacity: 1, MinCGPA: 6.0, RequiredSkills: "python", Active: true,
		})
	}
	svc := service.New(service.WithStore(store))

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)
	return httptest.NewServer(mux)
}

func postJSON(ts *httptest.Server, path string, body any) (*http.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return http.Post(ts.URL+path, "application/json", bytes.NewReader(raw)) //nolint:noctx
}

func TestAllocationEndpoints(t *testing.T) {
	convey.Convey("Given the allocation API over a seeded store", t, func() {
		ts := newTestServer(true)
		defer ts.Close()

		convey.Convey("When posting an allocation run", func() {
			resp, err := postJSON(ts, "/allocations", map[string]any{"algorithm": "hungarian"})

			convey.Convey("Then it returns 201 with the run summary", func() {
				convey.So(err, convey.ShouldBeNil)
				defer resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusCreated)

				var payload struct {
					RunID   string `json:"run_id"`
					Summary struct {
						Status     string  `json:"status"`
						MatchCount int     `json:"match_count"`
						Average    float64 `json:"average_score"`
					} `json:"summary"`
				}
				convey.So(json.NewDecoder(resp.Body).Decode(&payload), convey.ShouldBeNil)
				convey.So(payload.RunID, convey.ShouldNotBeEmpty)
				convey.So(payload.Summary.Status, convey.ShouldEqual, "SUCCESS")
				convey.So(payload.Summary.MatchCount, convey.ShouldEqual, 1)

				convey.Convey("And the run can be read back", func() {
					resp, err := http.Get(ts.URL + "/allocations/" + payload.RunID) //nolint:noctx
					convey.So(err, convey.ShouldBeNil)
					defer resp.Body.Close()
					convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

					var summary struct {
						RunID      string `json:"run_id"`
						MatchCount int    `json:"match_count"`
					}
					convey.So(json.NewDecoder(resp.Body).Decode(&summary), convey.ShouldBeNil)
					convey.So(summary.RunID, convey.ShouldEqual, payload.RunID)
					convey.So(summary.MatchCount, convey.ShouldEqual, 1)
				})

				convey.Convey("And its matches can be listed", func() {
					resp, err := http.Get(fmt.Sprintf("%s/allocations/%s/matches", ts.URL, payload.RunID)) //nolint:noctx
					convey.So(err, convey.ShouldBeNil)
					defer resp.Body.Close()
					convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

					var listing struct {
						RunID   string `json:"run_id"`
						Matches []struct {
							CandidateID string  `json:"candidate_id"`
							FinalScore  float64 `json:"final_score"`
						} `json:"matches"`
					}
					convey.So(json.NewDecoder(resp.Body).Decode(&listing), convey.ShouldBeNil)
					convey.So(listing.Matches, convey.ShouldHaveLength, 1)
				})

				convey.Convey("And /allocations/latest returns it", func() {
					resp, err := http.Get(ts.URL + "/allocations/latest") //nolint:noctx
					convey.So(err, convey.ShouldBeNil)
					defer resp.Body.Close()
					convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

					var summary struct {
						RunID string `json:"run_id"`
					}
					convey.So(json.NewDecoder(resp.Body).Decode(&summary), convey.ShouldBeNil)
					convey.So(summary.RunID, convey.ShouldEqual, payload.RunID)
				})
			})
		})

		convey.Convey("When posting malformed JSON", func() {
			resp, err := http.Post(ts.URL+"/allocations", "application/json", bytes.NewReader([]byte("{"))) //nolint:noctx

			convey.Convey("Then it returns 400", func() {
				convey.So(err, convey.ShouldBeNil)
				defer resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusBadRequest)
			})
		})

		convey.Convey("When posting an unknown algorithm", func() {
			resp, err := postJSON(ts, "/allocations", map[string]any{"algorithm": "simplex"})

			convey.Convey("Then it returns 400", func() {
				convey.So(err, convey.ShouldBeNil)
				defer resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusBadRequest)
			})
		})

		convey.Convey("When posting negative weights", func() {
			resp, err := postJSON(ts, "/allocations", map[string]any{
				"weights": map[string]float64{"skill": -1, "location": 0.2, "cgpa": 0.15},
			})

			convey.Convey("Then it returns 400", func() {
				convey.So(err, convey.ShouldBeNil)
				defer resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusBadRequest)
			})
		})

		convey.Convey("When issuing a GET against /allocations", func() {
			resp, err := http.Get(ts.URL + "/allocations") //nolint:noctx

			convey.Convey("Then it returns 404", func() {
				convey.So(err, convey.ShouldBeNil)
				defer resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusNotFound)
			})
		})
	})

	convey.Convey("Given the allocation API while another run holds the lock", t, func() {
		ctx := context.Background()
		held := lock.NewMutex()
		convey.So(held.Acquire(ctx), convey.ShouldBeNil)

		svc := service.New(
			service.WithStore(repository.NewMemStore()),
			service.WithLock(held),
		)
		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)
		ts := httptest.NewServer(mux)
		defer ts.Close()

		convey.Convey("When posting an allocation run", func() {
			resp, err := postJSON(ts, "/allocations", map[string]any{})

			convey.Convey("Then it returns 409 with the conflict kind", func() {
				convey.So(err, convey.ShouldBeNil)
				defer resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusConflict)

				var payload struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				}
				convey.So(json.NewDecoder(resp.Body).Decode(&payload), convey.ShouldBeNil)
				convey.So(payload.Code, convey.ShouldEqual, "run_in_progress")
				convey.So(payload.Message, convey.ShouldContainSubstring, "conflict")
				convey.So(payload.Message, convey.ShouldContainSubstring, "already in progress")
			})
		})
	})

	convey.Convey("Given the allocation API over an empty store", t, func() {
		ts := newTestServer(false)
		defer ts.Close()

		convey.Convey("When reading the latest run before any exists", func() {
			resp, err := http.Get(ts.URL + "/allocations/latest") //nolint:noctx

			convey.Convey("Then it returns 404", func() {
				convey.So(err, convey.ShouldBeNil)
				defer resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusNotFound)
			})
		})

		convey.Convey("When reading an unknown run id", func() {
			resp, err := http.Get(ts.URL + "/allocations/no-such-run") //nolint:noctx

			convey.Convey("Then it returns 404 with an error payload", func() {
				convey.So(err, convey.ShouldBeNil)
				defer resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusNotFound)

				var payload struct {
					Code string `json:"code"`
				}
				convey.So(json.NewDecoder(resp.Body).Decode(&payload), convey.ShouldBeNil)
				convey.So(payload.Code, convey.ShouldEqual, "not_found")
			})
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	convey.Convey("Given the allocation API", t, func() {
		ts := newTestServer(true)
		defer ts.Close()

		convey.Convey("When fetching /stats", func() {
			resp, err := http.Get(ts.URL + "/stats") //nolint:noctx

			convey.Convey("Then it returns the service snapshot", func() {
				convey.So(err, convey.ShouldBeNil)
				defer resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

				var stats map[string]any
				convey.So(json.NewDecoder(resp.Body).Decode(&stats), convey.ShouldBeNil)
				convey.So(stats, convey.ShouldContainKey, "runsStored")
				convey.So(stats, convey.ShouldContainKey, "storageDriver")
			})
		})

		convey.Convey("When fetching /healthz", func() {
			resp, err := http.Get(ts.URL + "/healthz") //nolint:noctx

			convey.Convey("Then it serves Prometheus metrics", func() {
				convey.So(err, convey.ShouldBeNil)
				defer resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			})
		})
	})
}
