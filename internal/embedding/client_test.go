package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func embedServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/embed/face", handler)
	return httptest.NewServer(mux)
}

func TestEmbedReturnsVector(t *testing.T) {
	emb := make([]float32, 512)
	for i := range emb {
		emb[i] = float32(i) / 512.0
	}

	server := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("expected multipart form: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("expected file part: %v", err)
		}
		json.NewEncoder(w).Encode(faceResponse{
			FacesCount: 1,
			Embedding:  emb,
			Dim:        512,
			Model:      "buffalo_l",
		})
	})
	defer server.Close()

	client := NewClient(server.URL, 512, 5*time.Second)
	got, err := client.Embed(context.Background(), []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0})
	if err != nil {
		t.Fatalf("failed to embed: %v", err)
	}
	if len(got) != 512 {
		t.Fatalf("expected 512-dim embedding, got %d", len(got))
	}
}

func TestEmbedNoFace(t *testing.T) {
	server := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(faceResponse{FacesCount: 0})
	})
	defer server.Close()

	client := NewClient(server.URL, 512, 5*time.Second)
	_, err := client.Embed(context.Background(), []byte("not a face"))
	if !errors.Is(err, ErrNoFace) {
		t.Fatalf("expected ErrNoFace, got %v", err)
	}
}

func TestEmbedDimensionMismatch(t *testing.T) {
	server := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(faceResponse{
			FacesCount: 1,
			Embedding:  make([]float32, 128),
			Dim:        128,
		})
	})
	defer server.Close()

	client := NewClient(server.URL, 512, 5*time.Second)
	_, err := client.Embed(context.Background(), []byte("image"))
	if err == nil {
		t.Fatal("expected dimension mismatch error")
	}
	if errors.Is(err, ErrNoFace) {
		t.Fatal("dimension mismatch must not be reported as ErrNoFace")
	}
}

func TestEmbedServerError(t *testing.T) {
	server := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	})
	defer server.Close()

	client := NewClient(server.URL, 512, 5*time.Second)
	if _, err := client.Embed(context.Background(), []byte("image")); err == nil {
		t.Fatal("expected error from 500 response")
	}
}

func TestEmbedTimeout(t *testing.T) {
	server := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	defer server.Close()

	client := NewClient(server.URL, 512, 50*time.Millisecond)
	start := time.Now()
	_, err := client.Embed(context.Background(), []byte("image"))
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout not enforced, call took %v", elapsed)
	}
}

func TestEmbedDownscalesOversizedCapture(t *testing.T) {
	server := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("expected multipart form: %v", err)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("expected file part: %v", err)
		}
		defer file.Close()

		img, _, err := image.Decode(file)
		if err != nil {
			t.Fatalf("failed to decode upload: %v", err)
		}
		if img.Bounds().Dx() > 1024 || img.Bounds().Dy() > 1024 {
			t.Errorf("expected capture scaled to fit 1024, got %dx%d",
				img.Bounds().Dx(), img.Bounds().Dy())
		}
		json.NewEncoder(w).Encode(faceResponse{
			FacesCount: 1,
			Embedding:  make([]float32, 512),
			Dim:        512,
		})
	})
	defer server.Close()

	client := NewClient(server.URL, 512, 5*time.Second)
	if _, err := client.Embed(context.Background(), testJPEG(t, 4000, 3000)); err != nil {
		t.Fatalf("failed to embed: %v", err)
	}
}

func TestEmbedPassesUndecodableBytesThrough(t *testing.T) {
	raw := []byte("opaque-camera-format")

	server := embedServer(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("expected multipart form: %v", err)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("expected file part: %v", err)
		}
		defer file.Close()

		got, err := io.ReadAll(file)
		if err != nil {
			t.Fatalf("failed to read upload: %v", err)
		}
		if !bytes.Equal(got, raw) {
			t.Error("expected undecodable bytes uploaded unchanged")
		}
		json.NewEncoder(w).Encode(faceResponse{FacesCount: 0})
	})
	defer server.Close()

	client := NewClient(server.URL, 512, 5*time.Second)
	if _, err := client.Embed(context.Background(), raw); !errors.Is(err, ErrNoFace) {
		t.Fatalf("expected ErrNoFace, got %v", err)
	}
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0}, "image/jpeg"},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "image/png"},
		{"short", []byte{0x01}, "application/octet-stream"},
		{"unknown", []byte("plain text data"), "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectMIMEType(tt.data); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestDownscaleLargeImage(t *testing.T) {
	data, err := Downscale(testJPEG(t, 1600, 800), 800)
	if err != nil {
		t.Fatalf("failed to downscale: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if img.Bounds().Dx() != 800 || img.Bounds().Dy() != 400 {
		t.Errorf("expected 800x400, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestDownscaleSmallImageKeepsSize(t *testing.T) {
	data, err := Downscale(testJPEG(t, 200, 100), 800)
	if err != nil {
		t.Fatalf("failed to downscale: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 100 {
		t.Errorf("expected 200x100, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}
