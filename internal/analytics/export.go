package analytics

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/spec-kit/complaint-analytics/internal/domain"
)

// ExportHeader is the fixed column order of the flat export.
var ExportHeader = []string{
	"ID",
	"Type",
	"Status",
	"Priority",
	"Ward",
	"Sub-Zone",
	"Assigned To",
	"Submitted On",
	"Closed On",
	"Deadline",
	"Resolution Hours",
	"SLA Hours",
	"SLA Status",
}

// GeoNames resolves ward and sub-zone ids to display names.
type GeoNames struct {
	Wards    map[string]string
	SubZones map[string]string
}

// NewGeoNames indexes the geographic hierarchy.
func NewGeoNames(wards []domain.Ward, zones []domain.SubZone) GeoNames {
	names := GeoNames{
		Wards:    make(map[string]string, len(wards)),
		SubZones: make(map[string]string, len(zones)),
	}
	for _, w := range wards {
		names.Wards[w.ID] = w.Name
	}
	for _, z := range zones {
		names.SubZones[z.ID] = z.Name
	}
	return names
}

// ExportRows flattens complaints into string rows matching ExportHeader.
func ExportRows(complaints []domain.Complaint, rules *RuleSet, names GeoNames, loc *time.Location) [][]string {
	if loc == nil {
		loc = time.UTC
	}
	rows := make([][]string, 0, len(complaints))
	for i := range complaints {
		c := &complaints[i]
		slaHours := ""
		if hours, ok := rules.Hours(c.Type); ok {
			slaHours = strconv.Itoa(hours)
		}
		resolution := ""
		if d, ok := c.ResolutionTime(); ok {
			resolution = strconv.FormatFloat(Round1(d.Hours()), 'f', 1, 64)
		}
		rows = append(rows, []string{
			c.ID,
			rules.Label(c.Type),
			string(c.Status),
			string(c.Priority),
			lookupName(names.Wards, c.WardID),
			lookupName(names.SubZones, deref(c.SubZoneID)),
			deref(c.AssignedToID),
			formatTime(&c.SubmittedOn, loc),
			formatTime(c.ClosedOn, loc),
			formatTime(c.Deadline, loc),
			resolution,
			slaHours,
			string(Evaluate(c, rules)),
		})
	}
	return rows
}

// WriteCSV writes the header and rows.
func WriteCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func lookupName(names map[string]string, id string) string {
	if id == "" {
		return ""
	}
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return id
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format(time.RFC3339)
}
