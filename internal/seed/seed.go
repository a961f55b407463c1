// Package seed generates a deterministic demo data set.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/okian/evalboard/internal/adapters/repository"
	"github.com/okian/evalboard/internal/domain/model"
)

// Dataset is a complete roster, catalogue and month of activity.
type Dataset struct {
	Inspectors []model.Inspector
	Items      []model.EvaluationItem
	Targets    []model.Target
	Records    []model.EvaluationRecord
}

// profile drives how an inspector behaves in the generated month.
type profile struct {
	attendance float64 // chance of logging on a given day
	minUnits   int
	maxUnits   int
	approval   float64 // chance a record is approved
}

var (
	names = []string{ //nolint:gochecknoglobals // fixture data
		"Ahmed Saleh", "Sara Youssef", "Omar Haddad", "Lina Farouk", "Khalid Nasser",
		"Maya Rahman", "Yusuf Karim", "Huda Mansour", "Tariq Aziz", "Nour Hamdan",
		"Faisal Qasim", "Rania Said",
	}

	catalogue = []model.EvaluationItem{ //nolint:gochecknoglobals // fixture data
		{ID: "FS-01", Code: "FS-01", MainItem: "Fire Safety", SubItem: "Extinguishers"},
		{ID: "FS-02", Code: "FS-02", MainItem: "Fire Safety", SubItem: "Alarm panels"},
		{ID: "FS-03", Code: "FS-03", MainItem: "Fire Safety", SubItem: "Emergency exits"},
		{ID: "EL-01", Code: "EL-01", MainItem: "Electrical", SubItem: "Distribution boards"},
		{ID: "EL-02", Code: "EL-02", MainItem: "Electrical", SubItem: "Earthing"},
		{ID: "BS-01", Code: "BS-01", MainItem: "Building Safety", SubItem: "Scaffolding"},
		{ID: "BS-02", Code: "BS-02", MainItem: "Building Safety", SubItem: "Handrails"},
		{ID: "HY-01", Code: "HY-01", MainItem: "Hygiene", SubItem: "Food storage"},
	}

	// Profiles cycle over the roster so every risk tier shows up.
	profiles = []profile{ //nolint:gochecknoglobals // fixture data
		{attendance: 0.95, minUnits: 3, maxUnits: 7, approval: 0.95},
		{attendance: 0.85, minUnits: 2, maxUnits: 6, approval: 0.85},
		{attendance: 0.70, minUnits: 2, maxUnits: 5, approval: 0.70},
		{attendance: 0.35, minUnits: 1, maxUnits: 3, approval: 0.90},
		{attendance: 0.60, minUnits: 20, maxUnits: 30, approval: 0.75},
		{attendance: 0.30, minUnits: 1, maxUnits: 2, approval: 0.40},
	}
)

// Generate builds a data set for the month of now, with records from the
// first of the month through now.
func Generate(now time.Time, opts ...Option) Dataset {
	cfg := settings{seed: defaultSeed, inspectors: defaultInspectors, pending: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	rng := rand.New(rand.NewSource(cfg.seed)) //nolint:gosec // deterministic fixtures

	var d Dataset
	d.Items = make([]model.EvaluationItem, 0, len(catalogue)+1)
	for _, it := range catalogue {
		it.Department = "Field Inspection"
		it.Status = model.StatusApproved
		d.Items = append(d.Items, it)
	}
	if cfg.pending {
		d.Items = append(d.Items, model.EvaluationItem{
			ID: "SG-01", Code: "SG-01", MainItem: "Suggested", SubItem: "Solar installations",
			Department: "Field Inspection", Status: model.StatusPending,
		})
	}

	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	last := first.AddDate(0, 1, -1)

	for i := 0; i < cfg.inspectors; i++ {
		role := model.RoleInspector
		if i == 0 {
			role = model.RoleManager
		}
		in := model.Inspector{
			ID:         newID(rng),
			Name:       nameFor(i),
			Department: "Field Inspection",
			Role:       role,
		}
		d.Inspectors = append(d.Inspectors, in)

		p := profiles[i%len(profiles)]
		target := (p.minUnits + p.maxUnits) / 2 * 22
		d.Targets = append(d.Targets, model.Target{
			ID:          newID(rng),
			InspectorID: in.ID,
			MainItem:    model.WildcardItem,
			TargetValue: target,
			StartDate:   first.Format(model.DateLayout),
			EndDate:     last.Format(model.DateLayout),
		})

		for day := first; !day.After(now); day = day.AddDate(0, 0, 1) {
			if rng.Float64() >= p.attendance {
				continue
			}
			item := catalogue[rng.Intn(len(catalogue))]
			status := model.StatusPending
			if rng.Float64() < p.approval {
				status = model.StatusApproved
			}
			d.Records = append(d.Records, model.EvaluationRecord{
				ID:            newID(rng),
				Date:          day.Format(model.DateLayout),
				InspectorID:   in.ID,
				InspectorName: in.Name,
				ItemID:        item.ID,
				SubItem:       item.SubItem,
				MainItem:      item.MainItem,
				Code:          item.Code,
				Count:         p.minUnits + rng.Intn(p.maxUnits-p.minUnits+1),
				Status:        status,
			})
		}
	}
	return d
}

// Load writes the data set into the store.
func Load(ctx context.Context, store repository.Store, d Dataset) error {
	if err := store.UpsertInspectors(ctx, d.Inspectors); err != nil {
		return fmt.Errorf("seed inspectors: %w", err)
	}
	if err := store.UpsertItems(ctx, d.Items); err != nil {
		return fmt.Errorf("seed items: %w", err)
	}
	if err := store.SaveBatchTargets(ctx, d.Targets); err != nil {
		return fmt.Errorf("seed targets: %w", err)
	}
	for _, r := range d.Records {
		if err := store.CreateRecord(ctx, r); err != nil {
			return fmt.Errorf("seed record %s: %w", r.ID, err)
		}
	}
	return nil
}

// Submissions builds n submissions for date against the data set's
// approved items. Every dupEvery-th submission repeats the previous id;
// zero disables repeats.
func Submissions(d Dataset, n int, date string, seed int64, dupEvery int) []model.Submission {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic fixtures
	items := make([]model.EvaluationItem, 0, len(d.Items))
	for _, it := range d.Items {
		if it.Status == model.StatusApproved {
			items = append(items, it)
		}
	}
	if len(d.Inspectors) == 0 || len(items) == 0 {
		return nil
	}

	out := make([]model.Submission, 0, n)
	for i := 0; i < n; i++ {
		if dupEvery > 0 && i > 0 && i%dupEvery == 0 {
			out = append(out, out[i-1])
			continue
		}
		out = append(out, model.Submission{
			SubmissionID: newID(rng),
			Date:         date,
			InspectorID:  d.Inspectors[rng.Intn(len(d.Inspectors))].ID,
			ItemID:       items[rng.Intn(len(items))].ID,
			Count:        1 + rng.Intn(5),
		})
	}
	return out
}

func newID(rng *rand.Rand) string {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func nameFor(i int) string {
	if i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("%s %d", names[i%len(names)], i/len(names)+1)
}
