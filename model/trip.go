package model

// Section is an ordered run of points inside one trip.
// Mode is the upstream sensed-mode label and is never interpreted here.
type Section struct {
	ID       string   `json:"id"`
	UserID   string   `json:"user_id"`
	TripID   string   `json:"trip_id"`
	StartTs  float64  `json:"start_ts"`
	EndTs    float64  `json:"end_ts"`
	StartLoc Location `json:"start_loc"`
	EndLoc   Location `json:"end_loc"`
	Mode     string   `json:"mode,omitempty"`
	PointIDs []string `json:"point_ids"`
}

// Duration in seconds.
func (s Section) Duration() float64 {
	return s.EndTs - s.StartTs
}

// Trip is an ordered, non-overlapping sequence of sections.
type Trip struct {
	ID         string   `json:"id"`
	UserID     string   `json:"user_id"`
	StartTs    float64  `json:"start_ts"`
	EndTs      float64  `json:"end_ts"`
	StartLoc   Location `json:"start_loc"`
	EndLoc     Location `json:"end_loc"`
	SectionIDs []string `json:"section_ids"`
}

// Duration in seconds.
func (t Trip) Duration() float64 {
	return t.EndTs - t.StartTs
}

// Trips is sortable by start time.
type Trips []Trip

func (ts Trips) Len() int           { return len(ts) }
func (ts Trips) Less(i, j int) bool { return ts[i].StartTs < ts[j].StartTs }
func (ts Trips) Swap(i, j int)      { ts[i], ts[j] = ts[j], ts[i] }

// Sections is sortable by start time.
type Sections []Section

func (ss Sections) Len() int           { return len(ss) }
func (ss Sections) Less(i, j int) bool { return ss[i].StartTs < ss[j].StartTs }
func (ss Sections) Swap(i, j int)      { ss[i], ss[j] = ss[j], ss[i] }

// SmoothingResult records which points of a section the jump smoother threw out.
type SmoothingResult struct {
	SectionID     string   `json:"section_id"`
	UserID        string   `json:"user_id"`
	DeletedPoints []string `json:"deleted_points"`
	ThresholdUsed float64  `json:"threshold_used"`
	OutlierAlgo   string   `json:"outlier_algo"`
	FilteringAlgo string   `json:"filtering_algo"`
}
