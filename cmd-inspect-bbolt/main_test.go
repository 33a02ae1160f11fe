package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rotblauer/catTrips/model"
	"github.com/rotblauer/catTrips/store"
)

func TestSummarize(t *testing.T) {
	ctx := context.Background()
	b, err := store.OpenBolt(filepath.Join(t.TempDir(), "trips.db"), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	ps := []model.Point{
		{ID: "a", Lat: 1, Lng: 1, Ts: 1541683852},
		{ID: "b", Lat: 1, Lng: 1, Ts: 1541683882},
	}
	for _, cat := range []string{"rye8", "ia"} {
		if _, err := b.AppendPoints(ctx, cat, store.StreamLocation, ps); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.PutTourModel(ctx, b, model.EmptyTourModel("rye8"), time.Now()); err != nil {
		t.Fatal(err)
	}

	counts, err := summarize(b.DB(), "rye8")
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != 2 {
		t.Fatalf("got %v", counts)
	}
	var tracks bucketCount
	for _, c := range counts {
		if c.Cat != "rye8" {
			t.Errorf("filter leaked %s", c.Cat)
		}
		if c.Top == "tracks" {
			tracks = c
		}
	}
	if tracks.N != 2 || tracks.Name != store.StreamLocation {
		t.Errorf("tracks %v", tracks)
	}
	if tracks.First.Unix() != 1541683852 || tracks.Last.Unix() != 1541683882 {
		t.Errorf("range %v .. %v", tracks.First, tracks.Last)
	}

	all, err := summarize(b.DB(), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("all cats %v", all)
	}

	var buf bytes.Buffer
	if err := dumpValues(b.DB(), "", store.KeyTourModel, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"common_places":[]`) {
		t.Errorf("values %s", buf.String())
	}
}
