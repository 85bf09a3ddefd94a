package main

import (
	"fmt"
	"sort"

	"github.com/dcshock/servicepipe/pipeline"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const maxCellWidth = 60

func newTable(cols ...any) table.Writer {
	w := table.NewWriter()
	w.SetStyle(table.StyleLight)
	w.AppendHeader(table.Row(cols))
	return w
}

func render(w table.Writer, markdown bool) string {
	if markdown {
		return w.RenderMarkdown()
	}
	return w.Render()
}

func renderResults(inputs []string, results []pipeline.Result[any], markdown bool) string {
	w := newTable("#", "Input", "Status", "Output", "Error")
	w.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, WidthMax: maxCellWidth},
		{Number: 5, WidthMax: maxCellWidth},
	})
	for i, r := range results {
		status := pipeline.StatusSucceeded
		output, errText := fmt.Sprint(r.Value()), ""
		if !r.IsSuccess() {
			status = pipeline.StatusFailed
			output = ""
			if r.Err() != nil {
				errText = r.Err().Error()
			}
		}
		w.AppendRow(table.Row{i + 1, inputs[i], status.String(), output, errText})
	}
	return render(w, markdown)
}

func renderState(state pipeline.Values, markdown bool) string {
	keys := make([]string, 0, len(state))
	for k := range state {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	w := newTable("Key", "Value")
	for _, k := range keys {
		w.AppendRow(table.Row{k, fmt.Sprint(state[k])})
	}
	return render(w, markdown)
}

func renderServices(list []builtin, markdown bool) string {
	w := newTable("Service", "Description")
	for _, b := range list {
		w.AppendRow(table.Row{b.name, b.usage})
	}
	return render(w, markdown)
}
