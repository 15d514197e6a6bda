// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package plot

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/relabs-tech/earbud_motion/internal/dataset"
	"github.com/relabs-tech/earbud_motion/internal/imu"
)

var seriesColors = []string{"#d62728", "#2ca02c", "#1f77b4"}

// RenderDualPanelHTML writes an interactive page with one line chart per
// side, styled like WriteDualPanel.
func RenderDualPanelHTML(w io.Writer, pair dataset.Pair) error {
	page := components.NewPage()
	page.SetPageTitle(fmt.Sprintf("User %d - %s", pair.UserID, pair.Activity))

	for _, side := range []imu.Side{imu.Left, imu.Right} {
		rec := pair.Side(side)
		if rec.Len() == 0 {
			return fmt.Errorf("plot %s: %w", side, imu.ErrEmptyRecording)
		}
		page.AddCharts(sideChart(rec, Title(pair.UserID, pair.Activity, side)))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

func sideChart(rec imu.Recording, title string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Acceleration (g) / Gyroscope (dps)", NameLocation: "middle", NameGap: 40}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
	)

	ts := rec.Timestamps()
	x := make([]string, len(ts))
	for i, t := range ts {
		x[i] = strconv.FormatFloat(t, 'g', -1, 64)
	}
	line.SetXAxis(x)

	for i, c := range imu.AllChannels {
		values := rec.Channel(c)
		data := make([]opts.LineData, len(values))
		for j, v := range values {
			data[j] = opts.LineData{Value: v}
		}

		style := opts.LineStyle{Color: seriesColors[i%3], Width: 1}
		if !c.IsAccel() {
			style.Type = "dashed"
		}
		line.AddSeries(string(c), data,
			charts.WithLineStyleOpts(style),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: seriesColors[i%3]}),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		)
	}
	return line
}
