package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTimeWindow(t *testing.T) {
	now := time.Unix(1541683852, 0)
	if tq := timeWindow(0, now); tq.Start != 0 || tq.End != 0 {
		t.Errorf("zero since %+v", tq)
	}
	tq := timeWindow(time.Hour, now)
	if tq.Start != 1541683852-3600 || tq.End != 0 {
		t.Errorf("hour window %+v", tq)
	}
	if !tq.Contains(1541683852) || tq.Contains(1541683852-3601) {
		t.Error("window bounds")
	}
}

func TestTippyProcessLite(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "places.json.gz")

	if _, _, err := getTippyProcessLite("out.mbtiles", in, "catTrackPlace"); err == nil {
		t.Error("expected error for missing input")
	}

	if err := os.WriteFile(in, []byte{}, 0644); err != nil {
		t.Fatal(err)
	}
	cmd, args, err := getTippyProcessLite("out.mbtiles", in, "catTrackPlace")
	if err != nil {
		t.Fatal(err)
	}
	if cmd == "" {
		t.Error("no command")
	}
	want := map[string]string{"-o": "out.mbtiles", "-P": in, "-l": "catTrackPlace"}
	for i := 0; i < len(args)-1; i++ {
		if v, ok := want[args[i]]; ok {
			if args[i+1] != v {
				t.Errorf("%s %s", args[i], args[i+1])
			}
			delete(want, args[i])
		}
	}
	if len(want) != 0 {
		t.Errorf("missing args %v", want)
	}
	// places are never dropped or clustered away
	keeps := false
	for _, a := range args {
		switch a {
		case "-r1":
			keeps = true
		case "--cluster-densest-as-needed", "--drop-densest-as-needed", "-ag":
			t.Errorf("unexpected %s", a)
		}
	}
	if !keeps {
		t.Errorf("no -r1 in %v", args)
	}
}
