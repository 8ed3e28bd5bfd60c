package cmd

import (
	"fmt"

	"songsplitter/internal/deps"
	"songsplitter/internal/types"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range headers {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func renderBandResults(results []*types.BandResult) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Band.Name,
			fmt.Sprintf("%d-%d", r.Band.Low, r.Band.High),
			fmt.Sprintf("%.3f", r.Peak),
			r.OutputPath,
		})
	}
	return renderTable(
		[]string{"频段", "范围 (Hz)", "峰值", "输出文件"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
	)
}

func renderStemResults(stems []types.StemResult) string {
	rows := make([][]string, 0, len(stems))
	for _, s := range stems {
		rows = append(rows, []string{s.Stem, s.OutputPath})
	}
	return renderTable([]string{"音轨", "输出文件"}, rows, nil)
}

func renderDependencies(statuses []deps.Status) string {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		state := "可用"
		if !s.Available {
			state = "缺失"
			if s.Optional {
				state = "缺失 (可选)"
			}
		}
		location := s.Path
		if location == "" {
			location = s.Detail
		}
		rows = append(rows, []string{s.Name, state, s.Description, location})
	}
	return renderTable([]string{"工具", "状态", "用途", "路径"}, rows, nil)
}
