package engine

import "sort"

// ============================================================================
// CHART BUILDER — Produces bar/line/pie Series from groups
// ============================================================================
// Bar:  one dataset, first palette color
// Pie:  one dataset, one palette color per slice (index mod palette)
// Line: one filled dataset on a sorted date axis, or, when groups carry
//       SubGroups, one open dataset per group on the union of all dates
// ============================================================================

// buildChart produces a chart Series from a descriptor and grouped results.
// Returns nil when there are no groups.
func buildChart(desc Descriptor, g grouping, palette []string) *Series {
	if len(g.groups) == 0 {
		return nil
	}
	if len(palette) == 0 {
		palette = DefaultPalette
	}

	kind := desc.Kind
	if kind == "" {
		kind = KindBar
	}

	series := &Series{
		Kind:  kind,
		Title: desc.Title,
	}

	label := desc.Title
	if label == "" {
		label = g.metric
	}
	if label == "" {
		label = "Value"
	}

	switch {
	case kind == KindLine && hasSubGroups(g.groups):
		series.Labels, series.Datasets = buildMultiSeries(g.groups, palette)
	case kind == KindPie:
		series.Labels, series.Datasets = buildPieSeries(g.groups, label, palette)
	default:
		series.Labels, series.Datasets = buildSingleSeries(g.groups, label, kind, palette)
	}
	return series
}

// ============================================================================
// SERIES BUILDERS
// ============================================================================

func buildSingleSeries(groups []Group, name string, kind Kind, palette []string) ([]string, []Dataset) {
	labels := make([]string, 0, len(groups))
	data := make([]float64, 0, len(groups))
	for _, g := range groups {
		labels = append(labels, g.Label)
		data = append(data, RoundTo2(g.Value))
	}

	color := palette[0]
	return labels, []Dataset{{
		Label:           name,
		Data:            data,
		BackgroundColor: []string{color},
		BorderColor:     color,
		Fill:            kind == KindLine,
	}}
}

func buildPieSeries(groups []Group, name string, palette []string) ([]string, []Dataset) {
	labels := make([]string, 0, len(groups))
	data := make([]float64, 0, len(groups))
	colors := make([]string, 0, len(groups))
	for i, g := range groups {
		labels = append(labels, g.Label)
		data = append(data, RoundTo2(g.Value))
		colors = append(colors, palette[i%len(palette)])
	}
	return labels, []Dataset{{
		Label:           name,
		Data:            data,
		BackgroundColor: colors,
		Fill:            true,
	}}
}

// buildMultiSeries aligns every group's SubGroups on one sorted date axis.
func buildMultiSeries(groups []Group, palette []string) ([]string, []Dataset) {
	type axisPoint struct {
		key   string
		label string
		group Group
	}

	seen := make(map[string]bool)
	var axis []axisPoint
	for _, g := range groups {
		for _, sg := range g.SubGroups {
			if !seen[sg.Key] {
				seen[sg.Key] = true
				axis = append(axis, axisPoint{key: sg.Key, label: sg.Label, group: sg})
			}
		}
	}
	sort.SliceStable(axis, func(i, j int) bool {
		if axis[i].group.At.Equal(axis[j].group.At) {
			return axis[i].key < axis[j].key
		}
		return axis[i].group.At.Before(axis[j].group.At)
	})

	labels := make([]string, len(axis))
	for i, p := range axis {
		labels[i] = p.label
	}

	datasets := make([]Dataset, 0, len(groups))
	for i, g := range groups {
		lookup := make(map[string]float64, len(g.SubGroups))
		for _, sg := range g.SubGroups {
			lookup[sg.Key] = sg.Value
		}

		data := make([]float64, len(axis))
		for j, p := range axis {
			data[j] = RoundTo2(lookup[p.key])
		}

		color := palette[i%len(palette)]
		datasets = append(datasets, Dataset{
			Label:           g.Label,
			Data:            data,
			BackgroundColor: []string{color},
			BorderColor:     color,
			Fill:            false,
		})
	}
	return labels, datasets
}

func hasSubGroups(groups []Group) bool {
	for _, g := range groups {
		if len(g.SubGroups) > 0 {
			return true
		}
	}
	return false
}
