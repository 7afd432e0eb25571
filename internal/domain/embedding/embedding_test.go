package embedding_test

import (
	"os"
	"path/filepath"
	"testing"

	embedding "github.com/talentgrid/placer/internal/domain/embedding"
	"github.com/smartystreets/goconvey/convey"
)

func testTable() *embedding.Table {
	t, err := embedding.NewTable(map[string][]float64{
		"python":   {1, 0, 0},
		"sql":      {0, 1, 0},
		"database": {0, 0.9, 0.1},
		"java":     {0.8, 0.2, 0},
	})
	if err != nil {
		panic(err)
	}
	return t
}

func TestTableSimilarity(t *testing.T) {
	convey.Convey("Given a small embedding table", t, func() {
		table := testTable()

		convey.Convey("When comparing a text with itself", func() {
			score := table.Similarity("python sql", "python sql")

			convey.Convey("Then the similarity should be 1", func() {
				convey.So(score, convey.ShouldAlmostEqual, 1.0, 1e-9)
			})
		})

		convey.Convey("When comparing orthogonal texts", func() {
			score := table.Similarity("python", "sql")

			convey.Convey("Then the similarity should be 0", func() {
				convey.So(score, convey.ShouldAlmostEqual, 0.0, 1e-9)
			})
		})

		convey.Convey("When comparing related texts", func() {
			score := table.Similarity("sql", "database")

			convey.Convey("Then the similarity should land strictly between", func() {
				convey.So(score, convey.ShouldBeGreaterThan, 0.9)
				convey.So(score, convey.ShouldBeLessThan, 1.0)
			})
		})

		convey.Convey("When tokens are separated by commas", func() {
			a := table.Similarity("python, sql", "python sql")

			convey.Convey("Then commas and whitespace should tokenize alike", func() {
				convey.So(a, convey.ShouldAlmostEqual, 1.0, 1e-9)
			})
		})

		convey.Convey("When nothing in the text is resolvable", func() {
			score := table.Similarity("zzz", "python")

			convey.Convey("Then the zero document vector yields 0", func() {
				convey.So(score, convey.ShouldEqual, 0.0)
			})
		})
	})
}

func TestOutOfVocabularyFallbacks(t *testing.T) {
	convey.Convey("Given a table and unknown tokens", t, func() {
		table := testTable()

		convey.Convey("When a token contains a known word", func() {
			score := table.Similarity("pythonista", "python")

			convey.Convey("Then substring containment should resolve it", func() {
				convey.So(score, convey.ShouldAlmostEqual, 1.0, 1e-9)
			})
		})

		convey.Convey("When a known word contains the token", func() {
			score := table.Similarity("data", "database")

			convey.Convey("Then the containing word's vector is used", func() {
				convey.So(score, convey.ShouldAlmostEqual, 1.0, 1e-9)
			})
		})

		convey.Convey("When a token is a scrambled spelling", func() {
			// Same character set as "python"; overlap 1.0 clears the floor.
			score := table.Similarity("pyhton", "python")

			convey.Convey("Then character overlap should resolve it", func() {
				convey.So(score, convey.ShouldAlmostEqual, 1.0, 1e-9)
			})
		})

		convey.Convey("When resolving the same unknown token twice", func() {
			a := table.DocumentVector("pyhton")
			b := table.DocumentVector("pyhton")

			convey.Convey("Then the fallback choice is deterministic", func() {
				convey.So(a, convey.ShouldResemble, b)
			})
		})
	})
}

func TestCosine(t *testing.T) {
	convey.Convey("Given raw vectors", t, func() {
		convey.Convey("When either side is the zero vector", func() {
			convey.So(embedding.Cosine([]float64{0, 0}, []float64{1, 0}), convey.ShouldEqual, 0.0)
			convey.So(embedding.Cosine([]float64{0, 0}, []float64{0, 0}), convey.ShouldEqual, 0.0)
		})

		convey.Convey("When lengths differ", func() {
			convey.So(embedding.Cosine([]float64{1}, []float64{1, 0}), convey.ShouldEqual, 0.0)
		})

		convey.Convey("When vectors point the opposite way", func() {
			convey.So(embedding.Cosine([]float64{1, 0}, []float64{-1, 0}), convey.ShouldAlmostEqual, -1.0, 1e-9)
		})
	})
}

func TestNewTableValidation(t *testing.T) {
	convey.Convey("Given table construction", t, func() {
		convey.Convey("When the vector map is empty", func() {
			_, err := embedding.NewTable(nil)

			convey.Convey("Then ErrEmptyTable is returned", func() {
				convey.So(err, convey.ShouldWrap, embedding.ErrEmptyTable)
			})
		})

		convey.Convey("When dimensions are mixed", func() {
			_, err := embedding.NewTable(map[string][]float64{
				"a": {1, 0},
				"b": {1, 0, 0},
			})

			convey.Convey("Then ErrDimensionMismatch is returned", func() {
				convey.So(err, convey.ShouldWrap, embedding.ErrDimensionMismatch)
			})
		})
	})
}

func TestLoad(t *testing.T) {
	convey.Convey("Given table files on disk", t, func() {
		dir := t.TempDir()

		write := func(name, content string) string {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				t.Fatal(err)
			}
			return path
		}

		convey.Convey("When loading a well-formed file", func() {
			path := write("good.txt", "Python 1 0 0\nsql 0 1 0\n\ndatabase 0 0.9 0.1\n")
			table, err := embedding.Load(path)

			convey.Convey("Then vectors parse, blanks skip, words lowercase", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(table.Size(), convey.ShouldEqual, 3)
				convey.So(table.Dim(), convey.ShouldEqual, 3)
				convey.So(table.Similarity("python", "python"), convey.ShouldAlmostEqual, 1.0, 1e-9)
			})
		})

		convey.Convey("When a vector value is not a number", func() {
			path := write("bad-number.txt", "python 1 x 0\n")
			_, err := embedding.Load(path)

			convey.Convey("Then loading fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When dimensions are inconsistent", func() {
			path := write("bad-dims.txt", "python 1 0 0\nsql 0 1\n")
			_, err := embedding.Load(path)

			convey.Convey("Then ErrDimensionMismatch is returned", func() {
				convey.So(err, convey.ShouldWrap, embedding.ErrDimensionMismatch)
			})
		})

		convey.Convey("When the file does not exist", func() {
			_, err := embedding.Load(filepath.Join(dir, "missing.txt"))

			convey.Convey("Then loading fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the file has no usable entries", func() {
			path := write("empty.txt", "\n\n")
			_, err := embedding.Load(path)

			convey.Convey("Then ErrEmptyTable is returned", func() {
				convey.So(err, convey.ShouldWrap, embedding.ErrEmptyTable)
			})
		})
	})
}
