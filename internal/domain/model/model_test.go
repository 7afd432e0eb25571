package model_test

import (
	"strings"
	"testing"
	"time"

	model "github.com/talentgrid/placer/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestCandidate(t *testing.T) {
	convey.Convey("Given a Candidate struct", t, func() {
		convey.Convey("When creating a candidate with a reported CGPA", func() {
			cgpa := 8.2
			c := model.Candidate{
				ID:           "cand-1",
				Email:        "ada@example.com",
				Name:         "Ada",
				CGPA:         &cgpa,
				Skills:       "go, sql, kubernetes",
				LocationPref: "Pune",
			}

			convey.Convey("Then it should have the correct values", func() {
				convey.So(c.Email, convey.ShouldEqual, "ada@example.com")
				convey.So(c.CGPA, convey.ShouldNotBeNil)
				convey.So(*c.CGPA, convey.ShouldEqual, 8.2)
				convey.So(c.Skills, convey.ShouldContainSubstring, "sql")
			})
		})

		convey.Convey("When the CGPA was never reported", func() {
			c := model.Candidate{ID: "cand-2", Email: "b@example.com"}

			convey.Convey("Then CGPA should be nil, not zero", func() {
				convey.So(c.CGPA, convey.ShouldBeNil)
			})
		})
	})
}

func TestPosition(t *testing.T) {
	convey.Convey("Given a Position struct", t, func() {
		convey.Convey("When creating an active position", func() {
			p := model.Position{
				ID:             "pos-1",
				Title:          "Backend Engineer",
				Location:       "Bengaluru",
				Capacity:       3,
				MinCGPA:        7.0,
				RequiredSkills: "go postgres",
				Active:         true,
			}

			convey.Convey("Then it should have the correct values", func() {
				convey.So(p.Capacity, convey.ShouldEqual, 3)
				convey.So(p.MinCGPA, convey.ShouldEqual, 7.0)
				convey.So(p.Active, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When MinCGPA is zero", func() {
			p := model.Position{ID: "pos-2", Capacity: 1}

			convey.Convey("Then there is no academic requirement", func() {
				convey.So(p.MinCGPA, convey.ShouldEqual, 0.0)
			})
		})
	})
}

func TestRunParamsRoundTrip(t *testing.T) {
	convey.Convey("Given run params", t, func() {
		params := model.RunParams{
			RespectExisting: true,
			Scoped:          true,
			FrozenCount:     4,
			Weights:         model.ParamWeights{Skill: 0.65, Location: 0.20, CGPA: 0.15},
			Algorithm:       "hungarian",
			EnsembleMethod:  "weighted",
			MethodWeights:   map[string]float64{"lexical": 0.4, "semantic": 0.6},
		}

		convey.Convey("When encoding and parsing back", func() {
			got := model.ParseRunParams(params.Encode())

			convey.Convey("Then every field should survive", func() {
				convey.So(got.RespectExisting, convey.ShouldBeTrue)
				convey.So(got.Scoped, convey.ShouldBeTrue)
				convey.So(got.FrozenCount, convey.ShouldEqual, 4)
				convey.So(got.Weights.Skill, convey.ShouldEqual, 0.65)
				convey.So(got.Weights.Location, convey.ShouldEqual, 0.20)
				convey.So(got.Weights.CGPA, convey.ShouldEqual, 0.15)
				convey.So(got.Algorithm, convey.ShouldEqual, "hungarian")
				convey.So(got.EnsembleMethod, convey.ShouldEqual, "weighted")
				convey.So(got.MethodWeights["semantic"], convey.ShouldEqual, 0.6)
			})
		})

		convey.Convey("When the ensemble fields are unset", func() {
			plain := model.RunParams{Algorithm: "greedy"}
			encoded := plain.Encode()

			convey.Convey("Then they should be omitted from the payload", func() {
				convey.So(strings.Contains(encoded, "ensemble_method"), convey.ShouldBeFalse)
				convey.So(strings.Contains(encoded, "method_weights"), convey.ShouldBeFalse)
			})
		})
	})
}

func TestRunMetricsRoundTrip(t *testing.T) {
	convey.Convey("Given run metrics", t, func() {
		metrics := model.RunMetrics{
			TotalCandidates: 12,
			TotalPositions:  5,
			MatchesFound:    9,
			AverageScore:    0.6125,
			Note:            "",
		}

		convey.Convey("When encoding and parsing back", func() {
			got := model.ParseRunMetrics(metrics.Encode())

			convey.Convey("Then every field should survive", func() {
				convey.So(got.TotalCandidates, convey.ShouldEqual, 12)
				convey.So(got.TotalPositions, convey.ShouldEqual, 5)
				convey.So(got.MatchesFound, convey.ShouldEqual, 9)
				convey.So(got.AverageScore, convey.ShouldEqual, 0.6125)
			})
		})

		convey.Convey("When a note explains an empty run", func() {
			noted := model.RunMetrics{Note: "no eligible candidates in scope"}
			got := model.ParseRunMetrics(noted.Encode())

			convey.Convey("Then the note should survive", func() {
				convey.So(got.Note, convey.ShouldEqual, "no eligible candidates in scope")
			})
		})
	})
}

func TestLenientParsing(t *testing.T) {
	convey.Convey("Given malformed persisted payloads", t, func() {
		convey.Convey("When parsing broken params JSON", func() {
			got := model.ParseRunParams("{not json")

			convey.Convey("Then the zero value is returned, never an error", func() {
				convey.So(got, convey.ShouldResemble, model.RunParams{})
			})
		})

		convey.Convey("When parsing broken metrics JSON", func() {
			got := model.ParseRunMetrics("<html>")

			convey.Convey("Then the zero value is returned, never an error", func() {
				convey.So(got, convey.ShouldResemble, model.RunMetrics{})
			})
		})

		convey.Convey("When parsing an empty string", func() {
			convey.So(model.ParseRunParams(""), convey.ShouldResemble, model.RunParams{})
			convey.So(model.ParseRunMetrics(""), convey.ShouldResemble, model.RunMetrics{})
		})

		convey.Convey("When parsing params with unknown extra fields", func() {
			got := model.ParseRunParams(`{"algorithm":"greedy","legacy_flag":true}`)

			convey.Convey("Then known fields decode and extras are ignored", func() {
				convey.So(got.Algorithm, convey.ShouldEqual, "greedy")
			})
		})
	})
}

func TestAllocationRun(t *testing.T) {
	convey.Convey("Given an AllocationRun", t, func() {
		now := time.Now()
		run := model.AllocationRun{
			ID:        "run-1",
			Status:    model.StatusSuccess,
			Params:    model.RunParams{Algorithm: "hungarian"}.Encode(),
			Metrics:   model.RunMetrics{MatchesFound: 2}.Encode(),
			CreatedAt: now,
		}

		convey.Convey("Then payloads should parse back from the row", func() {
			convey.So(run.Status, convey.ShouldEqual, "SUCCESS")
			convey.So(model.ParseRunParams(run.Params).Algorithm, convey.ShouldEqual, "hungarian")
			convey.So(model.ParseRunMetrics(run.Metrics).MatchesFound, convey.ShouldEqual, 2)
			convey.So(run.CreatedAt, convey.ShouldEqual, now)
		})
	})
}
