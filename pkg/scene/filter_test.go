package scene

import "testing"

func TestFilterDimensions(t *testing.T) {
	mine := testPoint("a", "u1", 0, 0)
	mine.Text = "Solar panels on every roof"
	mine.ClusterID = intp(2)
	theirs := testPoint("b", "u2", 1, 1)
	theirs.Text = "Bike lanes downtown"

	var f Filter
	if f.Active() {
		t.Fatal("empty filter must be inactive")
	}
	if !f.Matches(&mine) || !f.Matches(&theirs) {
		t.Fatal("inactive filter matches everything")
	}

	f.UserID = "u1"
	if !f.Active() || !f.Matches(&mine) || f.Matches(&theirs) {
		t.Error("user dimension mismatch")
	}

	f.UserID = ""
	f.ClusterID = intp(2)
	if !f.Matches(&mine) || f.Matches(&theirs) {
		t.Error("cluster dimension mismatch")
	}
	f.ClusterID = intp(9)
	if f.Matches(&mine) {
		t.Error("wrong cluster must not match")
	}

	f.Clear()
	if f.Active() {
		t.Error("Clear must deactivate the filter")
	}
}

func TestFilterKeywords(t *testing.T) {
	var f Filter
	f.SetKeywords([]string{" Solar ", "", "WIND"})

	if got := len(f.Keywords()); got != 2 {
		t.Fatalf("Keywords() = %d entries, want 2 (blank dropped)", got)
	}

	solar := testPoint("a", "u1", 0, 0)
	solar.Text = "Rooftop SOLAR cooperative"
	bikes := testPoint("b", "u2", 0, 0)
	bikes.Text = "Bike lanes downtown"
	formattedOnly := testPoint("c", "u3", 0, 0)
	formattedOnly.Text = "wnd trbines"
	formattedOnly.FormattedText = "Wind turbines offshore."

	if !f.Matches(&solar) {
		t.Error("keyword match must be case-insensitive")
	}
	if f.Matches(&bikes) {
		t.Error("non-matching text must not match")
	}
	if !f.Matches(&formattedOnly) {
		t.Error("formatted text must also be searched")
	}

	f.SetKeywords(nil)
	if f.Active() {
		t.Error("clearing keywords must deactivate the dimension")
	}
	if f.Matches(&bikes) != true {
		t.Error("inactive filter matches everything")
	}
}

func TestFilterCombinesDimensions(t *testing.T) {
	p := testPoint("a", "u1", 0, 0)
	p.Text = "solar farm"
	p.ClusterID = intp(1)

	var f Filter
	f.UserID = "u1"
	f.ClusterID = intp(1)
	f.SetKeywords([]string{"solar"})

	if !f.Matches(&p) {
		t.Fatal("point satisfying all dimensions must match")
	}
	p.ClusterID = nil
	if f.Matches(&p) {
		t.Error("unclustered point cannot match a cluster dimension")
	}
	if f.Matches(nil) {
		t.Error("nil point never matches")
	}
}
