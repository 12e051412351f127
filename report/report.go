// Package report turns solved models into labeled text tables.
package report

import (
	"cmp"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/bartolsthoorn/opsplan/facility"
	"github.com/bartolsthoorn/opsplan/pricing"
)

// Units are the display units of the pricing table. Model prices and
// demands are multiplied by Currency and Volume before rounding.
type Units struct {
	Currency       float64
	CurrencySymbol string
	Volume         float64
}

// DefaultUnits shows prices in dollars per thousand units and demand in
// units of one million.
func DefaultUnits() Units {
	return Units{Currency: 1000, CurrencySymbol: "$", Volume: 1e6}
}

// Table is a titled table of preformatted cells.
type Table struct {
	Title  string
	Header []string
	Rows   [][]string
	// Notes are printed below the rows.
	Notes []string
}

var printer = message.NewPrinter(language.English)

// Amount formats v rounded to a whole number with thousands separators and
// two decimals, e.g. 4820000 -> "4,820,000.00".
func Amount(v float64) string {
	return printer.Sprintf("%.2f", math.Round(v))
}

// PriceTable lists the solved price and demand of every product in data
// order, scaled to u.
func PriceTable(res *pricing.Result, u Units) Table {
	t := Table{
		Title:  "Pricing",
		Header: []string{"Product", "Price", "Demand"},
	}
	for _, p := range res.Products {
		t.Rows = append(t.Rows, []string{
			p.Product,
			u.CurrencySymbol + Amount(u.Currency*p.Price),
			Amount(u.Volume * p.Demand),
		})
	}
	t.Notes = append(t.Notes,
		printer.Sprintf("revenue %.6f (baseline %.6f), status %s", res.Revenue, res.BaselineRevenue, res.Status))
	if res.Warning != nil {
		t.Notes = append(t.Notes, "warning: "+res.Warning.Error())
	}
	for _, v := range res.Violations {
		t.Notes = append(t.Notes, "violated: "+v.String())
	}
	return t
}

// AssignmentTable lists the assignments sorted by facility, then cluster.
func AssignmentTable(res *facility.Result) Table {
	t := Table{
		Title:  "Assignments",
		Header: []string{"Facility", "Cluster", "Distance", "Weight"},
	}
	rows := slices.Clone(res.Assignments)
	slices.SortFunc(rows, func(a, b facility.Assignment) int {
		if c := cmp.Compare(a.Facility, b.Facility); c != 0 {
			return c
		}
		return cmp.Compare(a.Cluster, b.Cluster)
	})
	for _, a := range rows {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(a.Facility),
			strconv.Itoa(a.Cluster),
			strconv.FormatFloat(a.Distance, 'f', 4, 64),
			printer.Sprintf("%d", a.Weight),
		})
	}
	t.Notes = append(t.Notes,
		printer.Sprintf("open facilities %v, %d assignments over %d pairs, cost %.4f, status %s",
			res.Selected, len(res.Assignments), res.Pairs, res.Cost, res.Status))
	for _, v := range res.Violations {
		t.Notes = append(t.Notes, "violated: "+v.String())
	}
	return t
}

// FacilityTable summarizes the open facilities: clusters served, customers
// served and weighted distance.
func FacilityTable(res *facility.Result) Table {
	t := Table{
		Title:  "Facilities",
		Header: []string{"Facility", "Clusters", "Customers", "Cost"},
	}
	type load struct {
		clusters, customers int
		cost                float64
	}
	loads := make(map[int]*load, len(res.Selected))
	for _, f := range res.Selected {
		loads[f] = &load{}
	}
	for _, a := range res.Assignments {
		l, ok := loads[a.Facility]
		if !ok {
			continue
		}
		l.clusters++
		l.customers += a.Weight
		l.cost += float64(a.Weight) * a.Distance
	}
	for _, f := range res.Selected {
		l := loads[f]
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(f),
			strconv.Itoa(l.clusters),
			printer.Sprintf("%d", l.customers),
			printer.Sprintf("%.2f", l.cost),
		})
	}
	return t
}

// Render writes the tables to w as aligned columns.
func Render(w io.Writer, tables ...Table) error {
	for i, t := range tables {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if t.Title != "" {
			if _, err := fmt.Fprintf(w, "%s\n%s\n", t.Title, strings.Repeat("=", len(t.Title))); err != nil {
				return err
			}
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		if len(t.Header) > 0 {
			fmt.Fprintln(tw, strings.Join(t.Header, "\t"))
		}
		for _, row := range t.Rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		for _, n := range t.Notes {
			if _, err := fmt.Fprintln(w, n); err != nil {
				return err
			}
		}
	}
	return nil
}
