package swagger_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	swagger "github.com/talentgrid/placer/internal/adapters/http/swagger"
)

func TestSwaggerRoutes(t *testing.T) {
	convey.Convey("Given the swagger routes", t, func() {
		mux := http.NewServeMux()
		swagger.Register(context.Background(), mux)
		ts := httptest.NewServer(mux)
		defer ts.Close()

		convey.Convey("When fetching /openapi.yaml", func() {
			resp, err := http.Get(ts.URL + "/openapi.yaml") //nolint:noctx

			convey.Convey("Then it serves the embedded spec", func() {
				convey.So(err, convey.ShouldBeNil)
				defer resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				convey.So(resp.Header.Get("Content-Type"), convey.ShouldContainSubstring, "yaml")

				body, err := io.ReadAll(resp.Body)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(body), convey.ShouldContainSubstring, "Placer Allocation API")
				convey.So(string(body), convey.ShouldContainSubstring, "/allocations/{id}/matches")
			})
		})

		convey.Convey("When fetching /api-docs", func() {
			resp, err := http.Get(ts.URL + "/api-docs") //nolint:noctx

			convey.Convey("Then it serves the ReDoc page", func() {
				convey.So(err, convey.ShouldBeNil)
				defer resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				convey.So(resp.Header.Get("Content-Type"), convey.ShouldContainSubstring, "text/html")

				body, err := io.ReadAll(resp.Body)
				convey.So(err, convey.ShouldBeNil)
				convey.So(strings.Contains(string(body), "Redoc.init('/openapi.yaml'"), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a nil mux", t, func() {
		convey.Convey("Then Register panics", func() {
			convey.So(func() { swagger.Register(context.Background(), nil) }, convey.ShouldPanic)
		})
	})
}
