package analytics

import (
	"sort"

	"github.com/spec-kit/complaint-analytics/internal/domain"
)

// GeoAxis selects which geographic unit forms the heatmap rows.
type GeoAxis string

const (
	GeoAxisWard    GeoAxis = "WARD"
	GeoAxisSubZone GeoAxis = "SUB_ZONE"
)

// OthersKey is the column id for complaints without a type.
const OthersKey = "OTHERS"

// GeoUnit is one heatmap row candidate.
type GeoUnit struct {
	ID   string
	Name string
}

// Heatmap is a geo-unit × complaint-type count matrix.
type Heatmap struct {
	XLabels    []string
	YLabels    []string
	XIDs       []string
	YIDs       []string
	Matrix     [][]int
	XAxisLabel string
	YAxisLabel string
	Axis       GeoAxis
	Total      int
}

// AxisLabel is the display name of the row axis.
func (a GeoAxis) AxisLabel() string {
	if a == GeoAxisSubZone {
		return "Sub-Zone"
	}
	return "Ward"
}

// BuildHeatmap counts complaints per (geo unit, type). Rows are every unit in units
// plus any unit id seen in the data, sorted by name; columns are the types present,
// densest first. Complaints with no unit on the chosen axis are not counted.
func BuildHeatmap(complaints []domain.Complaint, rules *RuleSet, units []GeoUnit, axis GeoAxis) Heatmap {
	rowNames := make(map[string]string, len(units))
	for _, u := range units {
		rowNames[u.ID] = u.Name
	}

	type cell struct{ row, col string }
	counts := make(map[cell]int)
	colTotals := make(map[string]int)
	colLabels := make(map[string]string)

	for i := range complaints {
		c := &complaints[i]
		row := geoID(c, axis)
		if row == "" {
			continue
		}
		if _, known := rowNames[row]; !known {
			rowNames[row] = row
		}
		col := rules.Canonical(c.Type)
		if col == "" {
			col = OthersKey
			colLabels[col] = OthersLabel
		} else if _, seen := colLabels[col]; !seen {
			colLabels[col] = rules.Label(c.Type)
		}
		counts[cell{row, col}]++
		colTotals[col]++
	}

	rows := make([]string, 0, len(rowNames))
	for id := range rowNames {
		rows = append(rows, id)
	}
	sort.Slice(rows, func(i, j int) bool {
		return lessLabel(rowNames[rows[i]], rows[i], rowNames[rows[j]], rows[j])
	})

	cols := make([]string, 0, len(colTotals))
	for id := range colTotals {
		cols = append(cols, id)
	}
	sort.Slice(cols, func(i, j int) bool {
		if colTotals[cols[i]] != colTotals[cols[j]] {
			return colTotals[cols[i]] > colTotals[cols[j]]
		}
		return lessLabel(colLabels[cols[i]], cols[i], colLabels[cols[j]], cols[j])
	})

	hm := Heatmap{
		XLabels:    make([]string, len(cols)),
		YLabels:    make([]string, len(rows)),
		XIDs:       cols,
		YIDs:       rows,
		Matrix:     make([][]int, len(rows)),
		XAxisLabel: "Complaint Type",
		YAxisLabel: axis.AxisLabel(),
		Axis:       axis,
	}
	for j, col := range cols {
		hm.XLabels[j] = colLabels[col]
	}
	for i, row := range rows {
		hm.YLabels[i] = rowNames[row]
		hm.Matrix[i] = make([]int, len(cols))
		for j, col := range cols {
			n := counts[cell{row, col}]
			hm.Matrix[i][j] = n
			hm.Total += n
		}
	}
	return hm
}

func geoID(c *domain.Complaint, axis GeoAxis) string {
	if axis == GeoAxisSubZone {
		if c.SubZoneID == nil {
			return ""
		}
		return *c.SubZoneID
	}
	return c.WardID
}

// WardUnits adapts wards to heatmap rows.
func WardUnits(wards []domain.Ward) []GeoUnit {
	units := make([]GeoUnit, 0, len(wards))
	for _, w := range wards {
		units = append(units, GeoUnit{ID: w.ID, Name: w.Name})
	}
	return units
}

// SubZoneUnits adapts sub-zones to heatmap rows.
func SubZoneUnits(zones []domain.SubZone) []GeoUnit {
	units := make([]GeoUnit, 0, len(zones))
	for _, z := range zones {
		units = append(units, GeoUnit{ID: z.ID, Name: z.Name})
	}
	return units
}
