package console

import (
	"context"

	"toll-console/internal/tollapi"
)

type reviewForm struct {
	AnomalyID string `form:"anomalyId" label:"Anomaly ID" validate:"required,int"`
	Notes     string `form:"notes" label:"Notes" validate:"required"`
	Status    string `form:"status" label:"Status" validate:"omitempty,oneof=REVIEWED RESOLVED ESCALATED"`
}

type reviewPayload struct {
	id     int64
	review tollapi.AnomalyReview
}

// anomaliesPage lists anomalies awaiting review and records review
// outcomes. A review without a status is recorded as REVIEWED.
type anomaliesPage struct {
	*base
	list *listView[tollapi.Anomaly]
	form *createForm[reviewPayload, tollapi.Anomaly]
}

type AnomaliesState struct {
	Form     FormState `json:"form"`
	List     ListState `json:"list"`
	Statuses []string  `json:"statuses"`
}

func newAnomaliesPage(b *base) Page {
	p := &anomaliesPage{base: b}

	p.list = newListView(b, "pending anomalies", b.api().PendingAnomalies)
	p.list.columns = []string{"ID", "Vehicle ID", "Type", "Severity", "Description", "Detected At", "Status"}
	p.list.row = func(a tollapi.Anomaly) []string {
		return []string{
			itoa(a.ID), itoa(a.VehicleID), a.AnomalyType, a.Severity,
			a.Description, displayTime(a.DetectedAt), string(a.ReviewStatus),
		}
	}
	p.list.errMsg = "Failed to fetch pending anomalies. Make sure the backend is running."
	p.list.emptyMsg = "No pending anomalies. All clear!"

	p.form = newCreateForm(b, reviewForm{}, func(fields map[string]string) (reviewPayload, string) {
		var f reviewForm
		if msg := decodeForm(&f, fields); msg != "" {
			return reviewPayload{}, msg
		}
		status := tollapi.ReviewStatus(f.Status)
		if status == "" {
			status = tollapi.ReviewReviewed
		}
		return reviewPayload{
			id:     toInt(f.AnomalyID),
			review: tollapi.AnomalyReview{Notes: f.Notes, Status: status},
		}, ""
	}, func(ctx context.Context, r reviewPayload) (tollapi.Anomaly, error) {
		a, err := b.api().ReviewAnomaly(ctx, r.id, r.review)
		if err == nil {
			if a.ID == 0 {
				a.ID = r.id
			}
			if a.ReviewStatus == "" {
				a.ReviewStatus = r.review.Status
			}
		}
		return a, err
	})
	p.form.success = func(a tollapi.Anomaly) string {
		return "Anomaly #" + itoa(a.ID) + " marked as " + string(a.ReviewStatus)
	}
	p.form.failMsg = "Failed to review anomaly. Please check the Anomaly ID and try again."
	p.form.after = func() { p.list.load() }
	return p
}

func (p *anomaliesPage) Mount() { p.list.load() }
func (p *anomaliesPage) Retry() { p.list.load() }
func (p *anomaliesPage) Submit(fields map[string]string) { p.form.submit(fields) }

func (p *anomaliesPage) Snapshot() any {
	return AnomaliesState{
		Form:     p.form.state(),
		List:     p.list.state(),
		Statuses: []string{
			string(tollapi.ReviewReviewed), string(tollapi.ReviewResolved), string(tollapi.ReviewEscalated),
		},
	}
}
