package admin

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/helpinghands/helpinghands/internal/requests"
)

// ReportFilename is the download name of the request export.
const ReportFilename = "requestsExport.csv"

const utf8BOM = "\ufeff"

var reportHeader = []string{
	"request_id", "status", "service_type",
	"appointment_date", "appointment_time",
	"pin_id", "pin_name", "cv_id", "cv_name",
	"created_at",
}

var summaryRows = []struct {
	label  string
	status requests.Status
}{
	{"Pending", requests.StatusPending},
	{"Review", requests.StatusReview},
	{"Active", requests.StatusActive},
	{"Completed", requests.StatusComplete},
	{"Rejected", requests.StatusRejected},
}

// ExportCSV renders every request created within the optional date range,
// newest first, followed by a status summary.
func (s *Service) ExportCSV(ctx context.Context, from, to string) ([]byte, error) {
	f := requests.Filter{}
	start, ok, err := parseOptionalDay("from", from)
	if err != nil {
		return nil, err
	}
	if ok {
		f.CreatedFrom = start
	}
	end, ok, err := parseOptionalDay("to", to)
	if err != nil {
		return nil, err
	}
	if ok {
		f.CreatedTo = end.AddDate(0, 0, 1)
	}
	list, err := s.requests.List(ctx, f)
	if err != nil {
		return nil, err
	}

	var pinIDs, cvIDs []string
	for _, r := range list {
		pinIDs = append(pinIDs, r.PINID)
		if r.CVID != "" {
			cvIDs = append(cvIDs, r.CVID)
		}
	}
	pinNames, err := s.profiles.PINNames(ctx, pinIDs)
	if err != nil {
		return nil, err
	}
	cvNames, err := s.profiles.CVNames(ctx, cvIDs)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(utf8BOM)
	w := csv.NewWriter(&buf)
	if err := w.Write(reportHeader); err != nil {
		return nil, err
	}
	counts := map[requests.Status]int{}
	for _, r := range list {
		counts[r.Status]++
		row := []string{
			r.ID,
			string(r.Status),
			string(r.ServiceType),
			r.AppointmentDate.String(),
			r.AppointmentTime + ":00",
			r.PINID,
			pinNames[r.PINID],
			r.CVID,
			cvNames[r.CVID],
			r.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	if err := w.Write([]string{}); err != nil {
		return nil, err
	}
	if err := w.Write([]string{"SUMMARY:"}); err != nil {
		return nil, err
	}
	if err := w.Write([]string{"Total Requests", strconv.Itoa(len(list))}); err != nil {
		return nil, err
	}
	for _, row := range summaryRows {
		if err := w.Write([]string{row.label, strconv.Itoa(counts[row.status])}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
