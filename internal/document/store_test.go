package document

import (
	"sync"
	"testing"
)

func TestOpenGetClose(t *testing.T) {
	t.Parallel()
	s := NewStore()

	if _, ok := s.Get("file:///a.qbe"); ok {
		t.Fatal("Get on empty store succeeded")
	}

	doc := s.Open("file:///a.qbe", "function $f() {\n@start\n\tret\n}\n")
	if doc.Tree == nil {
		t.Fatal("Open returned no tree")
	}

	got, ok := s.Get("file:///a.qbe")
	if !ok || got != doc {
		t.Fatalf("Get returned %v, want the opened snapshot", got)
	}

	s.Close("file:///a.qbe")
	if _, ok := s.Get("file:///a.qbe"); ok {
		t.Fatal("Get after Close succeeded")
	}
}

func TestOpenReplacesSnapshotWhole(t *testing.T) {
	t.Parallel()
	s := NewStore()

	first := s.Open("file:///a.qbe", "data $a = { w 1 }\n")
	second := s.Open("file:///a.qbe", "data $b = { w 2 }\n")
	if first == second {
		t.Fatal("Open reused the previous snapshot")
	}

	got, _ := s.Get("file:///a.qbe")
	if got != second {
		t.Fatal("Get did not return the replacement snapshot")
	}
	// The old snapshot keeps its own consistent pairing.
	if first.Text() != "data $a = { w 1 }\n" {
		t.Errorf("old snapshot text changed: %q", first.Text())
	}
}

func TestConcurrentReaders(t *testing.T) {
	t.Parallel()
	s := NewStore()
	s.Open("file:///a.qbe", "function $f() {\n@start\n\tret\n}\n")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				doc, ok := s.Get("file:///a.qbe")
				if !ok {
					t.Error("snapshot disappeared")
					return
				}
				if doc.Tree.Root().EndByte() != uint32(len(doc.Source)) {
					t.Error("tree and text out of sync")
					return
				}
				s.Open("file:///a.qbe", doc.Text())
			}
		}()
	}
	wg.Wait()
}
