package ai

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"ai-search-stream/internal/domain/model"
)

// Structured payload extraction: the answer text is scanned for patterns a
// UI can render richer than prose. The payloads are opaque to the pipeline;
// only this extractor and the presentation layer know their shape.
//
// Recognized patterns:
//   - "Label: Number[K|M|B|%]" line groups under a **Header** -> chart
//   - markdown tables -> table
//   - "Metric Name: value" line groups -> card

type chartPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type chartConfig struct {
	Type  string `json:"type"`
	XKey  string `json:"xKey"`
	YKey  string `json:"yKey"`
	Title string `json:"title"`
}

type chartPayload struct {
	Type   string       `json:"type"`
	Data   []chartPoint `json:"data"`
	Config chartConfig  `json:"config"`
}

type tablePayload struct {
	Type string              `json:"type"`
	Data []map[string]string `json:"data"`
}

type cardPayload struct {
	Type string            `json:"type"`
	Data map[string]string `json:"data"`
}

var (
	headerRe     = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	chartPointRe = regexp.MustCompile(`^[\-\*]?\s*(.+?):\s*(\d+(?:\.\d+)?)\s*([KMB%]?)\s*$`)
	cardLineRe   = regexp.MustCompile(`^([A-Z][A-Za-z ]+?)(?:\s*\[\d+\])?\s*:\s*(.+?)\s*$`)
)

// ExtractStructured returns chart/table/card events found in text, in that
// order. An empty slice means the answer is plain prose.
func ExtractStructured(text string) []model.Event {
	var events []model.Event

	charts := extractCharts(text)
	events = append(events, charts...)

	if table, ok := extractTable(text); ok {
		events = append(events, table)
	}
	if card, ok := extractCard(text, len(charts) > 0); ok {
		events = append(events, card)
	}
	return events
}

// extractCharts finds **Header** sections whose body is a run of at least
// three "Label: Number" lines and turns each into a bar chart series titled
// after the header.
func extractCharts(text string) []model.Event {
	headers := headerRe.FindAllStringSubmatchIndex(text, -1)
	var events []model.Event
	for i, h := range headers {
		title := strings.TrimSpace(text[h[2]:h[3]])
		sectionEnd := len(text)
		if i+1 < len(headers) {
			sectionEnd = headers[i+1][0]
		}
		section := text[h[1]:sectionEnd]
		// A section ends at the first blank line.
		if idx := strings.Index(section, "\n\n"); idx >= 0 {
			section = section[:idx]
		}

		points := chartPoints(section)
		if len(points) < 3 {
			continue
		}
		payload, _ := json.Marshal(chartPayload{
			Type: "chart",
			Data: points,
			Config: chartConfig{
				Type:  "bar",
				XKey:  "name",
				YKey:  "value",
				Title: title,
			},
		})
		events = append(events, model.NewUIEvent(model.EventChart, payload))
	}
	return events
}

func chartPoints(section string) []chartPoint {
	var points []chartPoint
	for _, line := range strings.Split(section, "\n") {
		m := chartPointRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		value, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		switch m[3] {
		case "K":
			value *= 1e3
		case "M":
			value *= 1e6
		case "B":
			value *= 1e9
		}
		points = append(points, chartPoint{Name: strings.TrimSpace(m[1]), Value: value})
	}
	return points
}

// extractTable parses the first markdown table: a header row, a separator
// row and at least one data row.
func extractTable(text string) (model.Event, bool) {
	var tableLines []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "|") {
			tableLines = append(tableLines, trimmed)
			continue
		}
		if len(tableLines) > 0 {
			break
		}
	}
	if len(tableLines) < 3 {
		return model.Event{}, false
	}

	headers := splitRow(tableLines[0])
	var rows []map[string]string
	for _, line := range tableLines[2:] {
		cells := splitRow(line)
		if isSeparatorRow(cells) {
			continue
		}
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(cells) {
				row[h] = cells[i]
			}
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return model.Event{}, false
	}

	payload, _ := json.Marshal(tablePayload{Type: "table", Data: rows})
	return model.NewUIEvent(model.EventTable, payload), true
}

func splitRow(line string) []string {
	parts := strings.Split(strings.Trim(line, "|"), "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}
	return cells
}

func isSeparatorRow(cells []string) bool {
	for _, c := range cells {
		if !strings.Contains(c, "-") {
			return false
		}
	}
	return true
}

// extractCard collects "Metric Name: value" lines into a metric card. Lines
// already claimed as chart points are skipped so one series is not reported
// twice.
func extractCard(text string, hasCharts bool) (model.Event, bool) {
	data := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if hasCharts && chartPointRe.MatchString(trimmed) {
			continue
		}
		m := cardLineRe.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		data[strings.TrimSpace(m[1])] = m[2]
	}
	if len(data) < 2 {
		return model.Event{}, false
	}

	payload, _ := json.Marshal(cardPayload{Type: "card", Data: data})
	return model.NewUIEvent(model.EventCard, payload), true
}
