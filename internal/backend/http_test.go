package backend

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mask-annotator/pkg/geometry"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, nil)
}

func TestUpload(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload", func(w http.ResponseWriter, r *http.Request) {
		file, hdr, err := r.FormFile("image")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		if hdr.Filename != "cat.png" || string(data) != "pixels" {
			http.Error(w, "unexpected upload", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(UploadResult{ImageID: "abc", ImagePath: "/uploads/abc.png"})
	})
	c := newTestClient(t, mux)

	res, err := c.Upload(context.Background(), "cat.png", strings.NewReader("pixels"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.ImageID != "abc" || res.ImagePath != "/uploads/abc.png" {
		t.Fatalf("result = %+v", res)
	}
}

func TestSegment(t *testing.T) {
	var got segmentBody
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sam", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		m := image.NewGray(image.Rect(0, 0, 8, 6))
		m.Pix[0] = 255
		w.Header().Set("Content-Type", "image/png")
		png.Encode(w, m)
	})
	c := newTestClient(t, mux)

	box := geometry.Box{X0: 100, Y0: 100, X1: 300, Y1: 200}
	img, err := c.Segment(context.Background(), SegmentRequest{ImageRef: "/uploads/abc.png", Box: box})
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 6 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if got.ImagePath != "/uploads/abc.png" || got.Box != [4]float64{100, 100, 300, 200} {
		t.Fatalf("request body = %+v", got)
	}
}

func TestSaveAndList(t *testing.T) {
	var savedID string
	var savedSize image.Point
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/masks", func(w http.ResponseWriter, r *http.Request) {
		savedID = r.FormValue("mask_id")
		f, _, err := r.FormFile("mask")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		m, err := png.Decode(f)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		savedSize = m.Bounds().Size()
		w.Write([]byte(`{"ok":true}`))
	})
	mux.HandleFunc("GET /api/masks", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"mask_id":"m1","centroid":{"x":10,"y":20},"contour":[{"x":1,"y":2},{"x":3,"y":4}]}]`))
	})
	c := newTestClient(t, mux)

	if err := c.Save(context.Background(), "m1", image.NewGray(image.Rect(0, 0, 40, 30))); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if savedID != "m1" || savedSize != (image.Point{40, 30}) {
		t.Fatalf("saved id=%q size=%v", savedID, savedSize)
	}

	records, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 || records[0].MaskID != "m1" ||
		records[0].Centroid != (geometry.Point2D{X: 10, Y: 20}) || len(records[0].Contour) != 2 {
		t.Fatalf("records = %+v", records)
	}
}

func TestStatusError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/reset", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"disk full"}`))
	})
	c := newTestClient(t, mux)

	err := c.Reset(context.Background())
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.Status != http.StatusInternalServerError || se.Message != "disk full" {
		t.Fatalf("status error = %+v", se)
	}
}

func TestSegmentBadImage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sam", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not a png"))
	})
	c := newTestClient(t, mux)
	if _, err := c.Segment(context.Background(), SegmentRequest{}); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestContextCanceled(t *testing.T) {
	c := newTestClient(t, http.NewServeMux())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.List(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
