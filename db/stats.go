package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/EQAR/eqar-db/models"
)

// first year broken down by ComplianceExtendedStats
const complianceYearStart = 2016

// ComplianceFilter narrows the completed applications counted by
// ComplianceStats. Zero fields do not filter.
type ComplianceFilter struct {
	Type   models.ApplicationType
	Result models.Result
	Year   int
}

func (f ComplianceFilter) conditions() ([]string, []interface{}) {
	where := []string{"a.stage = ?"}
	args := []interface{}{models.StageCompleted}
	if f.Type != "" {
		where = append(where, "a.type = ?")
		args = append(args, f.Type)
	}
	if f.Result != "" {
		where = append(where, "a.result = ?")
		args = append(args, f.Result)
	}
	if f.Year != 0 {
		where = append(where, "a.decision_date >= ? AND a.decision_date <= ?")
		args = append(args, fmt.Sprintf("%04d-01-01", f.Year), fmt.Sprintf("%04d-12-31", f.Year))
	}
	return where, args
}

// ComplianceStats counts the Register Committee conclusions of completed
// applications for every standard of the active ESG version.
func (q Queries) ComplianceStats(ctx context.Context, f ComplianceFilter) ([]models.ComplianceStat, error) {
	cat, err := q.ActiveCatalogue(ctx)
	if err != nil {
		return nil, err
	}
	return q.complianceStats(ctx, cat, f)
}

// ComplianceExtendedStats breaks ComplianceStats down by application type,
// result and decision year. Keys are "All", the type, the result or the year.
func (q Queries) ComplianceExtendedStats(ctx context.Context) (map[string][]models.ComplianceStat, error) {
	cat, err := q.ActiveCatalogue(ctx)
	if err != nil {
		return nil, err
	}

	var last models.Date
	query := `SELECT MAX(decision_date) FROM application WHERE stage = ?`
	if err := q.get(ctx, &last, query, models.StageCompleted); err != nil {
		return nil, errors.Wrap(err, "select last decision date")
	}

	filters := map[string]ComplianceFilter{"All": {}}
	for _, t := range []models.ApplicationType{models.TypeInitial, models.TypeRenewal} {
		filters[string(t)] = ComplianceFilter{Type: t}
	}
	for _, r := range []models.Result{models.ResultApproved, models.ResultRejected} {
		filters[string(r)] = ComplianceFilter{Result: r}
	}
	if !last.IsZero() {
		for year := complianceYearStart; year <= last.Year(); year++ {
			filters[strconv.Itoa(year)] = ComplianceFilter{Year: year}
		}
	}

	stats := make(map[string][]models.ComplianceStat, len(filters))
	for key, f := range filters {
		if stats[key], err = q.complianceStats(ctx, cat, f); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

func (q Queries) complianceStats(ctx context.Context, cat models.Catalogue, f ComplianceFilter) ([]models.ComplianceStat, error) {
	where, args := f.conditions()
	where = append(where, "s.version_id = ?", "a_s.rc IS NOT NULL")
	args = append(args, cat.Version.ID)

	var counts []struct {
		StandardID int               `db:"standard_id"`
		RC         models.Conclusion `db:"rc"`
		N          int               `db:"n"`
	}
	query := `
        SELECT a_s.standard_id, a_s.rc, COUNT(*) AS n
        FROM application_standard a_s
        JOIN application a ON a.id = a_s.application_id
        JOIN esg_standard s ON s.id = a_s.standard_id
        WHERE ` + strings.Join(where, " AND ") + `
        GROUP BY a_s.standard_id, a_s.rc`
	if err := q.selectAll(ctx, &counts, query, args...); err != nil {
		return nil, errors.Wrap(err, "count conclusions")
	}

	stats := make([]models.ComplianceStat, len(cat.Standards))
	index := make(map[int]int, len(cat.Standards))
	for i, std := range cat.Standards {
		stats[i].Standard = std.ShortName()
		index[std.ID] = i
	}
	for _, c := range counts {
		st := &stats[index[c.StandardID]]
		switch c.RC {
		case models.ConclusionCompliance:
			st.Compliance += c.N
		case models.ConclusionPartialCompliance:
			st.PartialCompliance += c.N
		case models.ConclusionNonCompliance:
			st.NonCompliance += c.N
		}
	}
	return stats, nil
}

// ApplicationsTotals counts completed and withdrawn applications by result
// and type. Applications without a result are left out.
func (q Queries) ApplicationsTotals(ctx context.Context) ([]models.ApplicationTotal, error) {
	var counts []struct {
		Result models.Result          `db:"result"`
		Type   models.ApplicationType `db:"type"`
		N      int                    `db:"n"`
	}
	query := `
        SELECT result, type, COUNT(*) AS n
        FROM application
        WHERE stage IN (?, ?) AND COALESCE(result, '') <> ''
        GROUP BY result, type
        ORDER BY result, type`
	if err := q.selectAll(ctx, &counts, query, models.StageCompleted, models.StageWithdrawn); err != nil {
		return nil, errors.Wrap(err, "count applications")
	}

	totals := []models.ApplicationTotal{}
	for _, c := range counts {
		if len(totals) == 0 || totals[len(totals)-1].Result != c.Result {
			totals = append(totals, models.ApplicationTotal{Result: c.Result})
		}
		t := &totals[len(totals)-1]
		switch c.Type {
		case models.TypeInitial:
			t.Initial += c.N
		case models.TypeRenewal:
			t.Renewal += c.N
		}
	}
	return totals, nil
}
