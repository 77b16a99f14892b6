package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/showoracle/last-show-oracle/internal/oracle"
	"github.com/showoracle/last-show-oracle/internal/venues"
)

func timeAnchor(t *testing.T, htmlText string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	sel := doc.Find("time").First()
	if sel.Length() == 0 {
		t.Fatal("fixture has no time element")
	}
	return sel
}

func TestRowCandidateBrooklyn(t *testing.T) {
	html := `
	<li class="gig-item">
		<time datetime="2024-03-15">March 15, 2024</time>
		<span class="city">Music Hall of Williamsburg, Brooklyn, NY, US</span>
		<a href="/venues/12345" class="venue">Music Hall of Williamsburg</a>
	</li>`
	lists := venues.New(map[string][]string{"NYC": {"music hall of williamsburg"}})

	c, ok := RowCandidate(timeAnchor(t, html), "https://example.com", lists, zap.NewNop())
	if !ok {
		t.Fatal("expected a candidate")
	}
	if c.Date != "2024-03-15" {
		t.Errorf("date = %q", c.Date)
	}
	if c.Metro != oracle.MetroNYC {
		t.Errorf("metro = %q, want NYC", c.Metro)
	}
	if !strings.Contains(c.City, "Brooklyn, NY") {
		t.Errorf("city = %q, want Brooklyn, NY", c.City)
	}
	if c.Venue != "Music Hall of Williamsburg" {
		t.Errorf("venue = %q", c.Venue)
	}
	if c.SourceType != "songkick" {
		t.Errorf("source type = %q", c.SourceType)
	}
}

func TestRowCandidateAlbanyIsNotNYC(t *testing.T) {
	html := `
	<li class="gig-item">
		<time datetime="2024-03-15">March 15, 2024</time>
		<span class="city">Lark Hall, Albany, NY, US 351 Hudson Ave.</span>
		<a href="/venues/67890" class="venue">Lark Hall</a>
	</li>`

	c, ok := RowCandidate(timeAnchor(t, html), "https://example.com", venues.Lists{}, zap.NewNop())
	if !ok {
		t.Fatal("expected a candidate")
	}
	if c.Metro != "" {
		t.Errorf("metro = %q, want none", c.Metro)
	}
	if !strings.Contains(c.City, "Albany, NY") {
		t.Errorf("city = %q, want Albany, NY preserved", c.City)
	}
	if c.Venue != "Lark Hall" {
		t.Errorf("venue = %q", c.Venue)
	}
}

func TestRowCandidateSanFrancisco(t *testing.T) {
	html := `
	<li class="gig-item">
		<time datetime="2024-03-15">March 15, 2024</time>
		<span class="city">The Independent, San Francisco, CA, US</span>
		<a href="/venues/11111" class="venue">The Independent</a>
	</li>`
	lists := venues.New(map[string][]string{"SF": {"the independent"}})

	c, ok := RowCandidate(timeAnchor(t, html), "https://example.com", lists, zap.NewNop())
	if !ok {
		t.Fatal("expected a candidate")
	}
	if c.Metro != oracle.MetroSF {
		t.Errorf("metro = %q, want SF", c.Metro)
	}
	if !strings.Contains(c.City, "San Francisco, CA") {
		t.Errorf("city = %q", c.City)
	}
}

func TestRowCandidateVenueRescue(t *testing.T) {
	html := `
	<li class="gig-item">
		<time datetime="2024-03-15">March 15, 2024</time>
		<span class="city">Some Venue, Some City, ST</span>
		<a href="/venues/22222" class="venue">Terminal 5</a>
	</li>`
	lists := venues.New(map[string][]string{"NYC": {"terminal 5"}})

	c, ok := RowCandidate(timeAnchor(t, html), "https://example.com", lists, zap.NewNop())
	if !ok {
		t.Fatal("expected a candidate")
	}
	if c.Metro != oracle.MetroNYC {
		t.Errorf("metro = %q, want NYC via allow-list rescue", c.Metro)
	}
	if c.City != "New York, NY" {
		t.Errorf("city = %q, want synthesized default", c.City)
	}
}

func TestRowCandidateMetroSlugWins(t *testing.T) {
	html := `
	<li class="gig-item">
		<time datetime="2023-10-27T20:00:00-0400">Oct 27</time>
		<a href="/venues/33333">Bottom of the Hill</a>
		<a href="/metro-areas/26330-us-san-francisco-bay-area">SF Bay Area, CA, US</a>
	</li>`

	c, ok := RowCandidate(timeAnchor(t, html), "https://www.songkick.com/artists/x/gigography", venues.Lists{}, zap.NewNop())
	if !ok {
		t.Fatal("expected a candidate")
	}
	if c.Date != "2023-10-27" {
		t.Errorf("date = %q, want timestamp truncated to calendar date", c.Date)
	}
	if c.Metro != oracle.MetroSF {
		t.Errorf("metro = %q, want SF from slug", c.Metro)
	}
	if c.City != "SF Bay Area, CA, US" {
		t.Errorf("city = %q, want slug link text", c.City)
	}
	if c.SourceHost != "www.songkick.com" {
		t.Errorf("source host = %q", c.SourceHost)
	}
}

func TestRowCandidateRejections(t *testing.T) {
	// No datetime attribute.
	html := `<li><time>sometime</time><a href="/venues/1">The Chapel</a></li>`
	if _, ok := RowCandidate(timeAnchor(t, html), "https://example.com", venues.Lists{}, zap.NewNop()); ok {
		t.Error("row without a datetime attribute must be dropped")
	}

	// Date outside sanity bounds.
	html = `<li><time datetime="1850-01-01">1850</time><a href="/venues/1">The Chapel</a></li>`
	if _, ok := RowCandidate(timeAnchor(t, html), "https://example.com", venues.Lists{}, zap.NewNop()); ok {
		t.Error("row with an out-of-range date must be dropped")
	}

	// Neither city nor venue.
	html = `<li><time datetime="2024-03-15">March 15</time></li>`
	if _, ok := RowCandidate(timeAnchor(t, html), "https://example.com", venues.Lists{}, zap.NewNop()); ok {
		t.Error("row with no location evidence must be dropped")
	}
}

func TestNearestRowFallsBackToParent(t *testing.T) {
	html := `<div id="wrap"><time datetime="2024-01-01">Jan 1</time></div>`
	anchor := timeAnchor(t, html)
	row := NearestRow(anchor)
	if goquery.NodeName(row) != "div" {
		t.Fatalf("expected parent div fallback, got %q", goquery.NodeName(row))
	}
}

func TestNearestRowStopsAtFirstQualifyingAncestor(t *testing.T) {
	html := `
	<table id="outer">
		<tr id="row">
			<td><time datetime="2024-01-01">Jan 1</time></td>
			<td><a href="/venues/9">The Fillmore</a></td>
		</tr>
	</table>`
	row := NearestRow(timeAnchor(t, html))
	id, _ := row.Attr("id")
	if id != "row" {
		t.Fatalf("expected tr#row, got %q", id)
	}
}

func TestVenueWindow(t *testing.T) {
	pad := strings.Repeat("x ", 100)
	text := pad + "The Independent, San Francisco, CA, US doors 8pm " + pad
	window := VenueWindow(text, "The Independent")
	if !strings.Contains(window, "San Francisco, CA") {
		t.Errorf("window %q should cover the city/state span", window)
	}
	if len(window) >= len(text) {
		t.Error("window should be narrower than the full row text")
	}

	if VenueWindow(text, "") != "" {
		t.Error("empty venue yields no window")
	}
	if VenueWindow(text, "Madison Square Garden") != "" {
		t.Error("absent venue yields no window")
	}
}
