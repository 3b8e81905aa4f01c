package pipeline

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/manga-tools/pageseg/internal/geometry"
)

// ToJSON serializes a single page result to pretty JSON.
func ToJSON(res *Result) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToJSONPages serializes multiple page results to pretty JSON.
func ToJSONPages(results []*Result) (string, error) {
	b, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToYAML serializes a single page result to YAML.
func ToYAML(res *Result) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	b, err := yaml.Marshal(res)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToCSV exports one row per text line with its panel and region
// context.
func ToCSV(res *Result) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{
		"panel", "panel_type", "region", "line",
		"x", "y", "w", "h", "orientation", "chars", "confidence",
	})
	for _, pn := range res.Panels {
		for _, rg := range pn.Regions {
			for _, ln := range rg.Lines {
				_ = w.Write([]string{
					strconv.Itoa(pn.ReadingOrder),
					pn.Type,
					strconv.Itoa(rg.ReadingOrder),
					strconv.Itoa(ln.ReadingOrder),
					fmt.Sprintf("%.1f", ln.Box.X),
					fmt.Sprintf("%.1f", ln.Box.Y),
					fmt.Sprintf("%.1f", ln.Box.Width),
					fmt.Sprintf("%.1f", ln.Box.Height),
					ln.Orientation,
					strconv.Itoa(ln.CharCount),
					fmt.Sprintf("%.3f", ln.Confidence),
				})
			}
		}
	}
	w.Flush()
	return buf.String(), nil
}

// Validate performs consistency checks on a page result: boxes stay
// inside the page, orders form 1-based permutations, confidences are
// in range.
func Validate(res *Result) error {
	if res == nil {
		return errors.New("nil result")
	}
	if res.Width <= 0 || res.Height <= 0 {
		return fmt.Errorf("invalid page size %dx%d", res.Width, res.Height)
	}
	if err := validateOrders(len(res.Panels), panelOrders(res.Panels)); err != nil {
		return fmt.Errorf("panels: %w", err)
	}
	pageBounds := geometry.NewBox(0, 0, float64(res.Width), float64(res.Height))
	for i, pn := range res.Panels {
		if err := validatePanel(pn, pageBounds, i); err != nil {
			return err
		}
	}
	return nil
}

func panelOrders(panels []PanelResult) []int {
	orders := make([]int, len(panels))
	for i, pn := range panels {
		orders[i] = pn.ReadingOrder
	}
	return orders
}

// validateOrders checks that orders form a permutation of 1..n.
func validateOrders(n int, orders []int) error {
	seen := make(map[int]bool, n)
	for _, o := range orders {
		if o < 1 || o > n {
			return fmt.Errorf("reading order %d out of range 1..%d", o, n)
		}
		if seen[o] {
			return fmt.Errorf("duplicate reading order %d", o)
		}
		seen[o] = true
	}
	return nil
}

func validatePanel(pn PanelResult, page geometry.Box, index int) error {
	if !pn.Box.Valid() {
		return fmt.Errorf("panel %d has invalid box", index)
	}
	if !boxInside(pn.Box, page) {
		return fmt.Errorf("panel %d exceeds page bounds", index)
	}
	if pn.Confidence < 0 || pn.Confidence > 1 {
		return fmt.Errorf("panel %d confidence out of range", index)
	}
	orders := make([]int, len(pn.Regions))
	for i, rg := range pn.Regions {
		orders[i] = rg.ReadingOrder
	}
	if err := validateOrders(len(pn.Regions), orders); err != nil {
		return fmt.Errorf("panel %d regions: %w", index, err)
	}
	for i, rg := range pn.Regions {
		lineOrders := make([]int, len(rg.Lines))
		for j, ln := range rg.Lines {
			lineOrders[j] = ln.ReadingOrder
			if ln.Confidence < 0 || ln.Confidence > 1 {
				return fmt.Errorf("panel %d region %d line %d confidence out of range", index, i, j)
			}
		}
		if err := validateOrders(len(rg.Lines), lineOrders); err != nil {
			return fmt.Errorf("panel %d region %d lines: %w", index, i, err)
		}
	}
	return nil
}

func boxInside(b, bounds geometry.Box) bool {
	return b.X >= bounds.X-geometry.Epsilon &&
		b.Y >= bounds.Y-geometry.Epsilon &&
		b.MaxX() <= bounds.MaxX()+geometry.Epsilon &&
		b.MaxY() <= bounds.MaxY()+geometry.Epsilon
}
