package scraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dance-board-api/internal/models"
)

var parseNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func sourceNamed(t *testing.T, name string) Source {
	t.Helper()
	for _, src := range DefaultSources() {
		if src.Name == name {
			return src
		}
	}
	t.Fatalf("no source %q", name)
	return Source{}
}

func TestParseVinitaHazari(t *testing.T) {
	src := sourceNamed(t, "Vinita Hazari")
	html := `<li>06/15 Jhoome Jo Pathaan | Bolly Femme | 7-9PM</li><li>07/2 Kesariya | Semi-Classical | 12-2PM</li>`

	classes := ParseVinitaHazari(html, src, parseNow)
	require.Len(t, classes, 1)
	c := classes[0]
	require.Equal(t, "Jhoome Jo Pathaan", c.Name)
	require.Equal(t, "2024-06-15", c.Date)
	require.Equal(t, "19:00", c.Time)
	require.Equal(t, "Bolly Femme", c.Style)
	require.Equal(t, 120, *c.Duration)
	require.Equal(t, "Vinita Hazari", c.Teacher)
	require.Equal(t, "vinihazari", c.TeacherInstagram)
	require.Equal(t, src.URL, c.TicketLink)
	require.Equal(t, models.RegionNYC, c.Region)
}

func TestParseIMGE(t *testing.T) {
	src := sourceNamed(t, "IMGE Dance")
	html := `
<h1 class="eventlist-title">SF: Intensive with Maddie and Shiv</h1>
<time class="event-date" datetime="2024-06-20">Thu</time><span>6:30 PM</span>
<h1 class="eventlist-title">IMGE Gala 2024</h1>
<time class="event-date" datetime="2024-06-22">Sat</time><span>7:00 PM</span>
<h1 class="eventlist-title">NYC: Open Class</h1>
<time class="event-date" datetime="2024-06-25">Tue</time><span>11:15 AM</span>`

	classes := ParseIMGE(html, src, parseNow)
	require.Len(t, classes, 2)

	sf := classes[0]
	require.Equal(t, "Intensive with Maddie and Shiv", sf.Name)
	require.Equal(t, "Maddie & Shiv", sf.Teacher)
	require.Equal(t, "18:30", sf.Time)
	require.Equal(t, 180, *sf.Duration)
	require.Equal(t, "San Francisco", sf.Location)
	require.Equal(t, models.RegionBayArea, sf.Region)

	nyc := classes[1]
	require.Equal(t, "Open Class", nyc.Name)
	require.Equal(t, "Ishita Mili", nyc.Teacher)
	require.Equal(t, "11:15", nyc.Time)
	require.Equal(t, "NYC", nyc.Location)
	require.Equal(t, "IMGE", nyc.Style)
}

func TestParseTushita(t *testing.T) {
	src := sourceNamed(t, "Dance With Tushita")
	html := `
<div class="product-title">BOLLY BADDIES: Round 2 Naatu</div><p>6/9 @ 4 PM</p>
<div class="product-title">Gift Card</div><p>6/10 @ 4 PM</p>
<div class="product-title">Bhangra Basics</div><p>7/4 11 AM</p>`

	classes := ParseTushita(html, src, parseNow)
	require.Len(t, classes, 2)
	require.Equal(t, "Naatu", classes[0].Name)
	require.Equal(t, "Bolly Femme", classes[0].Style)
	require.Equal(t, "2024-06-09", classes[0].Date)
	require.Equal(t, "16:00", classes[0].Time)
	require.Equal(t, "Bhangra", classes[1].Style)
	require.Equal(t, "2024-07-04", classes[1].Date)
	require.Equal(t, "11:00", classes[1].Time)
}

func TestMapStyle(t *testing.T) {
	cases := map[string]string{
		"Semi-Classical":   "Semiclassical",
		"Bolly Femme":      "Bolly Femme",
		"Bhangra Workshop": "Bhangra",
		"Hip Hop Fusion":   "Bollywood Fusion",
		"Filmy":            "Bollywood",
	}
	for in, want := range cases {
		require.Equal(t, want, MapStyle(in), in)
	}
}

func TestClockKeepsNoonAndConvertsPM(t *testing.T) {
	require.Equal(t, "12:00", clock("12", "00", "PM"))
	require.Equal(t, "21:30", clock("9", "30", "pm"))
	require.Equal(t, "09:05", clock("9", "05", "AM"))
}
