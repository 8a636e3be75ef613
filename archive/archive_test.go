package archive

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestCheckBlobName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"frames.parquet", false},
		{"start.raw", false},
		{"", true},
		{"..", true},
		{"a/b", true},
		{`a\b`, true},
	}
	for _, tt := range tests {
		err := checkBlobName(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("checkBlobName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func writeTestBlobs(t *testing.T, w Writer) {
	t.Helper()
	if err := w.AddBlob("start.json", []byte(`{"stage":32}`)); err != nil {
		t.Fatalf("AddBlob(start.json) error = %v", err)
	}
	if err := w.AddBlob("frames.parquet", bytes.Repeat([]byte{0xAB}, 100)); err != nil {
		t.Fatalf("AddBlob(frames.parquet) error = %v", err)
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
}

func TestTarWriterDeterministic(t *testing.T) {
	var a, b bytes.Buffer
	writeTestBlobs(t, NewTarWriter(&a))
	writeTestBlobs(t, NewTarWriter(&b))

	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("two identical archives differ")
	}
}

func TestTarWriterContents(t *testing.T) {
	var buf bytes.Buffer
	writeTestBlobs(t, NewTarWriter(&buf))

	tr := tar.NewReader(&buf)
	names := map[string][]byte{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("tar.Next() error = %v", err)
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			t.Fatalf("read %s: %v", hdr.Name, err)
		}
		names[hdr.Name] = data
		if hdr.ModTime.Unix() != 0 {
			t.Errorf("%s: mtime = %v, want epoch", hdr.Name, hdr.ModTime)
		}
	}
	if string(names["start.json"]) != `{"stage":32}` {
		t.Errorf("start.json = %q", names["start.json"])
	}
	if len(names["frames.parquet"]) != 100 {
		t.Errorf("frames.parquet length = %d, want 100", len(names["frames.parquet"]))
	}
}

func TestTarWriterAfterFinalize(t *testing.T) {
	var buf bytes.Buffer
	w := NewTarWriter(&buf)
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if err := w.AddBlob("late.json", []byte("{}")); err == nil {
		t.Error("AddBlob after Finalize should fail")
	}
}

func TestTarZstWriterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewTarZstWriter(&buf)
	if err != nil {
		t.Fatalf("NewTarZstWriter() error = %v", err)
	}
	writeTestBlobs(t, w)

	zr, err := zstd.NewReader(&buf)
	if err != nil {
		t.Fatalf("zstd.NewReader() error = %v", err)
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	hdr, err := tr.Next()
	if err != nil {
		t.Fatalf("tar.Next() error = %v", err)
	}
	if hdr.Name != "start.json" {
		t.Errorf("first entry = %q, want start.json", hdr.Name)
	}
}

func TestDirWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	writeTestBlobs(t, NewDirWriter(dir))

	data, err := os.ReadFile(filepath.Join(dir, "start.json"))
	if err != nil {
		t.Fatalf("ReadFile error = %v", err)
	}
	if string(data) != `{"stage":32}` {
		t.Errorf("start.json = %q", data)
	}
}

func TestMemWriterOrder(t *testing.T) {
	w := NewMemWriter()
	writeTestBlobs(t, w)

	if !w.Finalized {
		t.Error("Finalized = false")
	}
	want := []string{"start.json", "frames.parquet"}
	if len(w.Order) != len(want) {
		t.Fatalf("Order = %v, want %v", w.Order, want)
	}
	for i := range want {
		if w.Order[i] != want[i] {
			t.Errorf("Order[%d] = %q, want %q", i, w.Order[i], want[i])
		}
	}
}
