package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestWriteLinePreservesExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	if err := os.WriteFile(path, []byte("existing line\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.WriteLine("new line\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "existing line\nnew line\n" {
		t.Fatalf("unexpected content: %q", string(data))
	}
}

func TestFlushMakesLinesDurableWithoutClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if err := s.WriteLine("buffered\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "buffered\n" {
		t.Fatalf("unexpected content after flush: %q", string(data))
	}
}

func TestConcurrentProducersNeverInterleaveWithinALine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	const producers = 8
	const linesPer = 200
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < linesPer; i++ {
				line := fmt.Sprintf("producer=%d seq=%d payload=%s\n", p, i, strings.Repeat("x", 64))
				if err := s.WriteLine(line); err != nil {
					t.Errorf("write p=%d i=%d: %v", p, i, err)
					return
				}
			}
		}(p)
	}
	wg.Wait()
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != producers*linesPer {
		t.Fatalf("line count got=%d want=%d", len(lines), producers*linesPer)
	}
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		var p, seq int
		var payload string
		if _, err := fmt.Sscanf(line, "producer=%d seq=%d payload=%s", &p, &seq, &payload); err != nil {
			t.Fatalf("corrupt line %q: %v", line, err)
		}
		if payload != strings.Repeat("x", 64) {
			t.Fatalf("mangled payload in line %q", line)
		}
		key := fmt.Sprintf("%d/%d", p, seq)
		if seen[key] {
			t.Fatalf("duplicate line %s", key)
		}
		seen[key] = true
	}
}
